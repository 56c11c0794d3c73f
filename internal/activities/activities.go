package activities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/models"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// BookingExpirer cancels a booking whose payment window ran out
type BookingExpirer interface {
	ExpireUnpaidBooking(ctx context.Context, id uuid.UUID) (bool, models.BookingStatus, error)
}

// Activities holds the dependencies of the worker's activities
type Activities struct {
	bookings BookingExpirer
}

func New(bookings BookingExpirer) *Activities {
	return &Activities{bookings: bookings}
}

// ExpireUnpaidBooking cancels the booking when it is still pending and unpaid.
// Bookings that were paid or cancelled in the meantime are left alone.
func (a *Activities) ExpireUnpaidBooking(ctx context.Context, input models.ExpireBookingInput) (*models.ExpireBookingResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Expiring unpaid booking", "bookingId", input.BookingID)

	id, err := uuid.Parse(input.BookingID)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError("invalid booking id", "InvalidBookingID", err)
	}

	expired, status, err := a.bookings.ExpireUnpaidBooking(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("Booking not found", "bookingId", input.BookingID)
			return &models.ExpireBookingResult{}, nil
		}
		logger.Error("Failed to expire booking", "bookingId", input.BookingID, "error", err)
		return nil, err
	}

	logger.Info("Expiry checked", "bookingId", input.BookingID, "expired", expired, "status", string(status))
	return &models.ExpireBookingResult{Expired: expired, Status: string(status)}, nil
}
