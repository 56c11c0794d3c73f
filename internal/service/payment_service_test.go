package service

import (
	"context"
	"testing"

	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/payment"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentProcessor(f *fixture, dedupe WebhookDeduper) *PaymentProcessor {
	return NewPaymentProcessor(f.store, f.gateway, f.svc, dedupe, zerolog.Nop())
}

func TestPaymentProcessor_WebhookConfirmsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)

	txn := "pi_123"
	f.gateway.event = &payment.WebhookEvent{
		ID:            "evt_1",
		Type:          "checkout.session.completed",
		BookingID:     resp.ID,
		OrderCode:     resp.PaymentInfo.OrderCode,
		Status:        models.PaymentStatusPaid,
		TransactionID: &txn,
	}
	p := newPaymentProcessor(f, &memDeduper{})

	require.NoError(t, p.HandleWebhook(ctx, []byte(`{}`), "valid"))

	b, err := f.store.GetBooking(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)

	rec, err := f.store.GetPaymentByOrderCode(ctx, resp.PaymentInfo.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, rec.Status)
	require.NotNil(t, rec.TransactionID)
	assert.Equal(t, "pi_123", *rec.TransactionID)

	// Replays are acknowledged without reapplying.
	require.NoError(t, p.HandleWebhook(ctx, []byte(`{}`), "valid"))
	assert.Len(t, f.notifier.users, 1)
}

func TestPaymentProcessor_WebhookRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := newPaymentProcessor(f, nil)
	err := p.HandleWebhook(ctx, []byte(`{}`), "forged")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	f.gateway.event = &payment.WebhookEvent{ID: "evt_2", Type: "payment_intent.created"}
	assert.NoError(t, p.HandleWebhook(ctx, []byte(`{}`), "valid"))

	f.gateway.event = &payment.WebhookEvent{ID: "evt_3", OrderCode: 42, Status: models.PaymentStatusPaid}
	dedupe := &memDeduper{}
	p = newPaymentProcessor(f, dedupe)
	assert.ErrorIs(t, p.HandleWebhook(ctx, []byte(`{}`), "valid"), apperr.ErrNotFound)
	assert.False(t, dedupe.seen["webhook:evt_3"], "failed events must be retryable")

	noGateway := NewPaymentProcessor(f.store, nil, f.svc, nil, zerolog.Nop())
	assert.ErrorIs(t, noGateway.HandleWebhook(ctx, nil, "valid"), apperr.ErrPayment)
}

func TestPaymentProcessor_GetPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "17:00", "19:00"))
	require.NoError(t, err)
	code := resp.PaymentInfo.OrderCode

	f.gateway.status = &payment.Status{Status: models.PaymentStatusPending, ProviderState: "open"}
	p := newPaymentProcessor(f, nil)

	st, err := p.GetPaymentStatus(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, st.BookingID)
	assert.Equal(t, 400.0, st.Amount)
	assert.Equal(t, "open", st.ProviderState)

	_, err = p.GetPaymentStatus(ctx, code+1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	f.gateway.status = nil
	_, err = p.GetPaymentStatus(ctx, code)
	assert.ErrorIs(t, err, apperr.ErrPayment)
}

func TestPaymentProcessor_CancelPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)
	code := resp.PaymentInfo.OrderCode
	p := newPaymentProcessor(f, nil)

	stranger := f.admin
	stranger.Role = models.RoleCustomer
	assert.ErrorIs(t, p.CancelPayment(ctx, stranger, code, "nope"), apperr.ErrNotFound)

	require.NoError(t, p.CancelPayment(ctx, f.customer, code, "changed my mind"))
	assert.Equal(t, 1, f.gateway.cancelCount())

	rec, err := f.store.GetPaymentByOrderCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, rec.Status)

	assert.ErrorIs(t, p.CancelPayment(ctx, f.customer, code, "again"), apperr.ErrValidation)
}
