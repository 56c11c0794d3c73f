package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/payment"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_SinglePeakPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "17:00", "19:00"))
	require.NoError(t, err)

	b := resp.Booking
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, models.PaymentStatusPending, b.PaymentStatus)
	assert.Equal(t, f.customer.UserID, b.UserID)
	assert.Equal(t, 400.0, b.TotalPrice)
	require.Len(t, b.Items, 1)
	assert.Equal(t, 400.0, b.Items[0].Price)
	assert.Equal(t, monday, b.Items[0].RefDate)
	assert.Equal(t, models.BookingStatusPending, b.Items[0].Status)

	require.NotNil(t, resp.PaymentInfo)
	assert.Equal(t, payment.OrderCodeFor(b.ID), resp.PaymentInfo.OrderCode)
	assert.Contains(t, resp.PaymentInfo.PaymentURL, b.ID.String())

	rec, err := f.store.GetPaymentByBookingID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, rec.Amount)
	assert.Equal(t, models.PaymentStatusPending, rec.Status)

	assert.Equal(t, []uuid.UUID{b.ID}, f.holds.started)
	assert.Equal(t, 1, f.slots.booked)
	require.Len(t, f.notifier.admins, 1)
	assert.Equal(t, models.NotificationBookingCreated, f.notifier.admins[0].Type)
	assert.Equal(t, "Customer Nguyen Van A has created a new single booking for Court 1. Total: 400 VND",
		f.notifier.admins[0].Message)
}

func TestCreateBooking_BasePrice(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.CreateBooking(context.Background(), f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.TotalPrice)
}

func TestCreateBooking_Fixed(t *testing.T) {
	f := newFixture(t)
	from := calendar.NewDate(2026, time.January, 1)
	to := calendar.NewDate(2026, time.January, 14)

	resp, err := f.svc.CreateBooking(context.Background(), f.customer,
		fixed(f.court.ID, from, to, "09:00", "10:00", calendar.Monday, calendar.Wednesday))
	require.NoError(t, err)

	require.Len(t, resp.Items, 4)
	assert.Equal(t, 400.0, resp.TotalPrice)
	for _, it := range resp.Items {
		assert.Equal(t, resp.ID, it.BookingID)
		assert.Equal(t, f.court.ID, it.CourtID)
	}
	assert.Equal(t, 4, f.activeItems(t))
}

func TestCreateBooking_OverlapRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "17:00", "19:00"))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "18:00", "20:00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrSlotBusy)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	var busy *apperr.SlotBusyError
	require.True(t, errors.As(err, &busy))
	assert.Equal(t, 18, busy.Start.Hour())
	assert.Equal(t, 1, f.activeItems(t))
}

func TestCreateBooking_AdjacentAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "17:00", "19:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "19:00", "20:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "16:00", "17:00"))
	require.NoError(t, err)

	assert.Equal(t, 3, f.activeItems(t))
}

func TestCreateBooking_CancelThenRebook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "17:00", "19:00"))
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, f.customer, first.ID, "")
	require.NoError(t, err)

	second, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "17:00", "19:00"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateBooking_FixedWithOneConflictIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, wednesday, "09:30", "10:30"))
	require.NoError(t, err)
	before := f.activeItems(t)

	_, err = f.svc.CreateBooking(ctx, f.customer,
		fixed(f.court.ID, monday, monday.AddDays(13), "09:00", "10:00", calendar.Monday, calendar.Wednesday))
	require.ErrorIs(t, err, apperr.ErrSlotBusy)

	assert.Equal(t, before, f.activeItems(t))
	assert.Equal(t, 1, f.slots.booked)
}

func TestCreateBooking_PricingFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, f.customer,
		fixed(f.court.ID, monday, tuesday, "09:00", "10:00", calendar.Monday, calendar.Tuesday))
	require.ErrorIs(t, err, apperr.ErrNoMatchingRule)
	assert.ErrorIs(t, err, apperr.ErrPricing)
	assert.Contains(t, err.Error(), tuesday.String())

	assert.Equal(t, 0, f.activeItems(t))
	assert.Empty(t, f.gateway.created)
}

func TestCreateBooking_NonPositiveDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "17:00", "19:00"))
	require.NoError(t, err)

	// The reversed window lies inside the existing booking; pricing must still win.
	_, err = f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "18:30", "17:30"))
	require.ErrorIs(t, err, apperr.ErrNonPositiveDuration)
	assert.NotErrorIs(t, err, apperr.ErrSlotBusy)

	_, err = f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "09:00"))
	require.ErrorIs(t, err, apperr.ErrNonPositiveDuration)
}

func TestCreateBooking_NoSlotsGenerated(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.customer,
		fixed(f.court.ID, monday, tuesday, "09:00", "10:00", calendar.Sunday))
	require.ErrorIs(t, err, apperr.ErrNoSlotsGenerated)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, f.customer, &models.CreateBookingRequest{
		CourtID:   f.court.ID,
		Type:      models.BookingTypeSingle,
		StartTime: calendar.MustClock("09:00"),
		EndTime:   calendar.MustClock("10:00"),
	})
	assert.ErrorIs(t, err, apperr.ErrMissingDate)

	_, err = f.svc.CreateBooking(ctx, f.customer, single(uuid.New(), monday, "09:00", "10:00"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateBooking_InactiveCourt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.court.IsActive = false
	require.NoError(t, f.store.UpdateCourt(ctx, f.court, false))

	_, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)

	f.svc.cfg.RejectInactive = true
	_, err = f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "10:00", "11:00"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateBooking_PaymentLinkFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	f.gateway.failNext = true
	f.notifier.fail = true

	resp, err := f.svc.CreateBooking(context.Background(), f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)
	assert.Nil(t, resp.PaymentInfo)
	assert.Equal(t, 1, f.activeItems(t))

	_, err = f.store.GetPaymentByBookingID(context.Background(), resp.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.Len(t, f.holds.started, 1)
}

func TestCreateBooking_UnrecordedPaymentLinkIsExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deps := f.svc.deps
	deps.Payments = failingPayments{f.store}
	svc := NewBookingCoordinator(deps, f.svc.cfg, zerolog.Nop())

	resp, err := svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)
	assert.Nil(t, resp.PaymentInfo)
	assert.Equal(t, 1, f.activeItems(t))

	require.Len(t, f.gateway.created, 1)
	require.Equal(t, 1, f.gateway.cancelCount())
	assert.Equal(t, "cs_"+resp.ID.String(), f.gateway.cancelled[0])
}

func TestCreateBooking_ConcurrentStaggeredFixed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// each request shares some Mon/Wed dates with its neighbours but not all
	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, busy int
	)
	for i := 0; i < workers; i++ {
		from := monday.AddDays(i % 10)
		to := from.AddDays(13)
		wg.Add(1)
		go func() {
			defer wg.Done()
			actor := models.Actor{UserID: uuid.New(), Role: models.RoleCustomer}
			_, err := f.svc.CreateBooking(ctx, actor,
				fixed(f.court.ID, from, to, "09:00", "10:00", calendar.Monday, calendar.Wednesday))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrLockTimeout):
				t.Errorf("lock timeout: %v", err)
			case errors.Is(err, apperr.ErrSlotBusy):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, ok, 1)
	assert.Equal(t, workers, ok+busy)

	occ, err := f.store.ListOccupancy(ctx, f.court.ID, monday.AddDays(-30), monday.AddDays(60))
	require.NoError(t, err)
	require.NotEmpty(t, occ)
	for i := range occ {
		for j := i + 1; j < len(occ); j++ {
			assert.False(t, occ[i].Interval().Overlaps(occ[j].Interval()),
				"items %s and %s overlap", occ[i].ItemID, occ[j].ItemID)
		}
	}
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, busy int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			actor := models.Actor{UserID: uuid.New(), Role: models.RoleCustomer}
			_, err := f.svc.CreateBooking(ctx, actor, single(f.court.ID, monday, "17:00", "19:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrSlotBusy):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, busy)
	assert.Equal(t, 1, f.activeItems(t))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)

	stranger := models.Actor{UserID: uuid.New(), Role: models.RoleCustomer}
	_, err = f.svc.CancelBooking(ctx, stranger, resp.ID, "mine now")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	b, err := f.svc.CancelBooking(ctx, f.customer, resp.ID, "rain")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, b.Status)
	assert.Equal(t, models.BookingStatusCancelled, b.Items[0].Status)
	require.NotNil(t, b.Note)
	assert.Equal(t, "Cancelled: rain", *b.Note)

	assert.Equal(t, models.HoldOutcomeCancelled, f.holds.settled[resp.ID])
	assert.Equal(t, 1, f.slots.released)
	assert.Equal(t, 1, f.gateway.cancelCount())
	assert.Equal(t, 0, f.activeItems(t))

	_, err = f.svc.CancelBooking(ctx, f.customer, resp.ID, "again")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCancelBooking_AppendsToNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := single(f.court.ID, monday, "09:00", "10:00")
	note := "bring rackets"
	req.Note = &note
	resp, err := f.svc.CreateBooking(ctx, f.customer, req)
	require.NoError(t, err)

	b, err := f.svc.CancelBooking(ctx, f.admin, resp.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, "bring rackets | Cancelled: no reason given", *b.Note)
}

func TestUpdateBookingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)

	b, err := f.svc.UpdateBookingStatus(ctx, resp.ID, models.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Equal(t, models.BookingStatusConfirmed, b.Items[0].Status)
	assert.Equal(t, models.HoldOutcomeSettled, f.holds.settled[resp.ID])

	_, err = f.svc.UpdateBookingStatus(ctx, resp.ID, models.BookingStatusPending)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	b, err = f.svc.UpdateBookingStatus(ctx, resp.ID, models.BookingStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, b.Status)

	_, err = f.svc.UpdateBookingStatus(ctx, resp.ID, models.BookingStatusCancelled)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.UpdateBookingStatus(ctx, resp.ID, "ARCHIVED")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateBookingStatus_DeclinedStillBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateBookingStatus(ctx, resp.ID, models.BookingStatusDeclined)
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	assert.ErrorIs(t, err, apperr.ErrSlotBusy)
}

func TestUpdatePaymentStatus_PaidConfirms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)

	b, err := f.svc.UpdatePaymentStatus(ctx, &f.customer, resp.ID, models.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Equal(t, models.BookingStatusConfirmed, b.Items[0].Status)
	assert.Equal(t, models.HoldOutcomePaid, f.holds.settled[resp.ID])
	require.Len(t, f.notifier.users, 1)
	assert.Equal(t, models.NotificationBookingConfirmed, f.notifier.users[0].Type)
}

func TestUpdatePaymentStatus_TerminalBookingUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.CancelBooking(ctx, f.customer, resp.ID, "changed plans")
	require.NoError(t, err)

	b, err := f.svc.UpdatePaymentStatus(ctx, nil, resp.ID, models.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, b.Status)
	assert.Equal(t, models.PaymentStatusPaid, b.PaymentStatus)
}

func TestUpdatePaymentStatus_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)

	stranger := models.Actor{UserID: uuid.New(), Role: models.RoleCustomer}
	_, err = f.svc.UpdatePaymentStatus(ctx, &stranger, resp.ID, models.PaymentStatusPaid)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.UpdatePaymentStatus(ctx, &f.customer, resp.ID, "BOUNCED")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestExpireUnpaidBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unpaid, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)
	paid, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "11:00", "12:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdatePaymentStatus(ctx, nil, paid.ID, models.PaymentStatusPaid)
	require.NoError(t, err)

	expired, status, err := f.svc.ExpireUnpaidBooking(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, models.BookingStatusCancelled, status)

	b, err := f.store.GetBooking(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, b.PaymentStatus)
	assert.Equal(t, "Cancelled: payment window expired", *b.Note)
	_, settled := f.holds.settled[unpaid.ID]
	assert.False(t, settled)

	expired, status, err = f.svc.ExpireUnpaidBooking(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, models.BookingStatusConfirmed, status)

	expired, _, err = f.svc.ExpireUnpaidBooking(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.False(t, expired)

	_, _, err = f.svc.ExpireUnpaidBooking(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBookingQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := models.Actor{UserID: uuid.New(), Role: models.RoleCustomer}
	mine, err := f.svc.CreateBooking(ctx, f.customer, single(f.court.ID, monday, "09:00", "10:00"))
	require.NoError(t, err)
	theirs, err := f.svc.CreateBooking(ctx, other, single(f.court.ID, monday, "10:00", "11:00"))
	require.NoError(t, err)

	list, err := f.svc.GetMyBookings(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = f.svc.GetBooking(ctx, f.customer, theirs.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	got, err := f.svc.GetBooking(ctx, f.admin, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, other.UserID, got.UserID)

	list, err = f.svc.ListCourtBookings(ctx, f.customer, models.BookingQuery{CourtID: f.court.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.ListCourtBookings(ctx, f.admin, models.BookingQuery{CourtID: f.court.ID, Date: &monday})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.ListCourtBookings(ctx, f.admin, models.BookingQuery{CourtID: f.court.ID, Date: &tuesday})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestApplyStatus_LeavesDivergedItems(t *testing.T) {
	b := &models.Booking{
		Status: models.BookingStatusConfirmed,
		Items: []models.BookingItem{
			{Status: models.BookingStatusConfirmed},
			{Status: models.BookingStatusCancelled},
		},
	}

	require.NoError(t, applyStatus(b, models.BookingStatusCompleted))
	assert.Equal(t, models.BookingStatusCompleted, b.Status)
	assert.Equal(t, models.BookingStatusCompleted, b.Items[0].Status)
	assert.Equal(t, models.BookingStatusCancelled, b.Items[1].Status)
}
