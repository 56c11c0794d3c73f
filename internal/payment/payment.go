// Package payment creates checkout links for bookings and verifies provider webhooks.
package payment

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
)

// LinkRequest describes the checkout to create for a booking
type LinkRequest struct {
	OrderID     string
	OrderCode   int64
	Amount      float64
	Description string
}

// Link is a created checkout
type Link struct {
	CheckoutURL string
	QRCode      string
	OrderCode   int64
	ProviderRef string
}

// Status is the provider's view of a checkout
type Status struct {
	Status        models.PaymentStatus
	ProviderState string
	TransactionID *string
}

// WebhookEvent is a verified provider notification
type WebhookEvent struct {
	ID            string
	Type          string
	BookingID     uuid.UUID
	OrderCode     int64
	ProviderRef   string
	Status        models.PaymentStatus
	TransactionID *string
}

// OrderCodeFor derives the numeric order code of a booking from the last ten
// digits found in its identifier.
func OrderCodeFor(id uuid.UUID) int64 {
	var digits strings.Builder
	for _, r := range id.String() {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if len(s) > 10 {
		s = s[len(s)-10:]
	}
	if s == "" {
		return 0
	}
	code, _ := strconv.ParseInt(s, 10, 64)
	return code
}
