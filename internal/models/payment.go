package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment records the checkout link issued for a booking
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	BookingID     uuid.UUID     `json:"bookingId"`
	Amount        float64       `json:"amount"`
	OrderCode     int64         `json:"orderCode"`
	Status        PaymentStatus `json:"status"`
	PaymentURL    string        `json:"paymentUrl"`
	QRCode        string        `json:"qrCode,omitempty"`
	ProviderRef   string        `json:"providerRef"`
	TransactionID *string       `json:"transactionId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// PaymentStatusResponse is the provider-side view of a payment
type PaymentStatusResponse struct {
	OrderCode     int64         `json:"orderCode"`
	BookingID     uuid.UUID     `json:"bookingId"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	ProviderState string        `json:"providerState"`
}

// CancelPaymentRequest carries an optional cancellation reason
type CancelPaymentRequest struct {
	Reason string `json:"reason"`
}
