package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/payment"
	"github.com/rs/zerolog"
)

// PaymentStatusUpdater applies payment outcomes to bookings
type PaymentStatusUpdater interface {
	GetBooking(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, actor *models.Actor, id uuid.UUID, status models.PaymentStatus) (*models.Booking, error)
}

// PaymentProcessor implements PaymentService
type PaymentProcessor struct {
	payments PaymentStore
	gateway  PaymentGateway
	bookings PaymentStatusUpdater
	dedupe   WebhookDeduper
	log      zerolog.Logger
}

// NewPaymentProcessor creates a new PaymentProcessor. gateway and dedupe may be nil.
func NewPaymentProcessor(payments PaymentStore, gateway PaymentGateway, bookings PaymentStatusUpdater, dedupe WebhookDeduper, log zerolog.Logger) *PaymentProcessor {
	return &PaymentProcessor{
		payments: payments,
		gateway:  gateway,
		bookings: bookings,
		dedupe:   dedupe,
		log:      log.With().Str("component", "payment").Logger(),
	}
}

// GetPaymentStatus returns the stored payment refreshed from the provider when possible
func (p *PaymentProcessor) GetPaymentStatus(ctx context.Context, orderCode int64) (*models.PaymentStatusResponse, error) {
	rec, err := p.payments.GetPaymentByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	resp := &models.PaymentStatusResponse{
		OrderCode: rec.OrderCode,
		BookingID: rec.BookingID,
		Amount:    rec.Amount,
		Status:    rec.Status,
	}
	if p.gateway == nil {
		return resp, nil
	}

	st, err := p.gateway.GetStatus(ctx, rec.ProviderRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPayment, err)
	}
	resp.Status = st.Status
	resp.ProviderState = st.ProviderState
	return resp, nil
}

// CancelPayment cancels the checkout of a booking the caller can access
func (p *PaymentProcessor) CancelPayment(ctx context.Context, actor models.Actor, orderCode int64, reason string) error {
	rec, err := p.payments.GetPaymentByOrderCode(ctx, orderCode)
	if err != nil {
		return err
	}
	if _, err := p.bookings.GetBooking(ctx, actor, rec.BookingID); err != nil {
		return err
	}
	if rec.Status != models.PaymentStatusPending {
		return apperr.Validation("payment %d is already %s", orderCode, rec.Status)
	}

	if p.gateway != nil {
		if err := p.gateway.Cancel(ctx, rec.ProviderRef, reason); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrPayment, err)
		}
	}

	rec.Status = models.PaymentStatusFailed
	if err := p.payments.UpdatePayment(ctx, rec); err != nil {
		return err
	}

	p.log.Info().Int64("orderCode", orderCode).Str("reason", reason).Msg("payment link cancelled")
	return nil
}

// HandleWebhook verifies a provider event and applies it once
func (p *PaymentProcessor) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if p.gateway == nil {
		return fmt.Errorf("%w: no payment gateway configured", apperr.ErrPayment)
	}

	ev, err := p.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	if ev.Status == "" {
		p.log.Debug().Str("eventId", ev.ID).Str("type", ev.Type).Msg("ignoring webhook event")
		return nil
	}

	key := "webhook:" + ev.ID
	if p.dedupe != nil {
		claimed, err := p.dedupe.Claim(ctx, key)
		if err != nil {
			p.log.Warn().Err(err).Str("eventId", ev.ID).Msg("webhook dedupe unavailable")
		} else if !claimed {
			p.log.Info().Str("eventId", ev.ID).Msg("duplicate webhook event")
			return nil
		}
	}

	if err := p.applyEvent(ctx, ev); err != nil {
		if p.dedupe != nil {
			if rerr := p.dedupe.Release(ctx, key); rerr != nil {
				p.log.Warn().Err(rerr).Str("eventId", ev.ID).Msg("failed to release webhook claim")
			}
		}
		return err
	}
	return nil
}

func (p *PaymentProcessor) applyEvent(ctx context.Context, ev *payment.WebhookEvent) error {
	rec, err := p.payments.GetPaymentByOrderCode(ctx, ev.OrderCode)
	if err != nil {
		return err
	}
	if ev.BookingID != uuid.Nil && ev.BookingID != rec.BookingID {
		return apperr.Validation("webhook booking %s does not match payment %d", ev.BookingID, ev.OrderCode)
	}

	rec.Status = ev.Status
	if ev.TransactionID != nil {
		rec.TransactionID = ev.TransactionID
	}
	if err := p.payments.UpdatePayment(ctx, rec); err != nil {
		return err
	}

	booking, err := p.bookings.UpdatePaymentStatus(ctx, nil, rec.BookingID, ev.Status)
	if err != nil {
		return err
	}

	p.log.Info().
		Str("eventId", ev.ID).
		Int64("orderCode", ev.OrderCode).
		Str("paymentStatus", string(ev.Status)).
		Str("bookingStatus", string(booking.Status)).
		Msg("webhook applied")
	return nil
}
