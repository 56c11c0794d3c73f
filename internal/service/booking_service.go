package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/database"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/payment"
	"github.com/longtrq26/court-booking-system/internal/pricing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName        = "github.com/longtrq26/court-booking-system/internal/service"
	sideEffectTimeout = 15 * time.Second
)

// BookingConfig tunes the coordinator
type BookingConfig struct {
	Location       *time.Location
	RejectInactive bool
	CurrencyLabel  string
}

// BookingDeps are the collaborators of the coordinator. Gateway, Holds and
// Slots may be nil, which disables that side effect.
type BookingDeps struct {
	Courts   CourtCatalog
	Store    BookingStore
	Payments PaymentStore
	Users    UserDirectory
	Gateway  PaymentGateway
	Notifier NotificationSink
	Holds    HoldScheduler
	Slots    SlotBroadcaster
}

// BookingCoordinator implements BookingService
type BookingCoordinator struct {
	deps   BookingDeps
	guard  ConflictGuard
	cfg    BookingConfig
	log    zerolog.Logger
	tracer trace.Tracer
}

// NewBookingCoordinator creates a new BookingCoordinator
func NewBookingCoordinator(deps BookingDeps, cfg BookingConfig, log zerolog.Logger) *BookingCoordinator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CurrencyLabel == "" {
		cfg.CurrencyLabel = "VND"
	}
	return &BookingCoordinator{
		deps:   deps,
		cfg:    cfg,
		log:    log.With().Str("component", "booking").Logger(),
		tracer: otel.Tracer(tracerName),
	}
}

// CreateBooking reserves every slot of the request atomically. Either all
// items are persisted or none are.
func (s *BookingCoordinator) CreateBooking(ctx context.Context, actor models.Actor, req *models.CreateBookingRequest) (resp *models.BookingResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingCoordinator.CreateBooking", trace.WithAttributes(
		attribute.String("court.id", req.CourtID.String()),
		attribute.String("booking.type", string(req.Type)),
	))
	defer func() { endSpan(span, err) }()

	court, err := s.deps.Courts.GetCourt(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	if s.cfg.RejectInactive && !court.IsActive {
		return nil, apperr.NotFound("court", court.ID)
	}

	slots, err := GenerateSlots(req, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, apperr.ErrNoSlotsGenerated
	}
	span.SetAttributes(attribute.Int("booking.slots", len(slots)))

	booking := &models.Booking{
		ID:            uuid.New(),
		UserID:        actor.UserID,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		BookingType:   req.Type,
		Note:          req.Note,
	}

	err = s.deps.Store.InTx(ctx, func(tx database.Tx) error {
		booking.Items = booking.Items[:0]
		booking.TotalPrice = 0

		for _, slot := range slots {
			if err := s.guard.Acquire(ctx, tx, court.ID, slot); err != nil {
				return err
			}
			if err := s.guard.Check(ctx, tx, court.ID, slot); err != nil {
				return err
			}
			price, err := pricing.Resolve(court.Prices, calendar.WeekdayOf(slot.RefDate), req.StartTime, req.EndTime)
			if err != nil {
				return fmt.Errorf("slot %s %s-%s: %w", slot.RefDate, req.StartTime, req.EndTime, err)
			}

			booking.Items = append(booking.Items, models.BookingItem{
				ID:        uuid.New(),
				BookingID: booking.ID,
				CourtID:   court.ID,
				StartTime: slot.Start,
				EndTime:   slot.End,
				RefDate:   slot.RefDate,
				Price:     price,
				Status:    models.BookingStatusPending,
			})
			booking.TotalPrice += price
		}

		return tx.InsertBooking(ctx, booking)
	})
	if err != nil {
		s.log.Info().Err(err).Str("courtId", court.ID.String()).Str("userId", actor.UserID.String()).
			Msg("booking rejected")
		return nil, err
	}

	s.log.Info().
		Str("bookingId", booking.ID.String()).
		Str("courtId", court.ID.String()).
		Int("items", len(booking.Items)).
		Float64("total", booking.TotalPrice).
		Msg("booking created")

	resp = &models.BookingResponse{Booking: booking}
	resp.PaymentInfo = s.afterCreate(ctx, booking, court)
	return resp, nil
}

// afterCreate runs the post-commit side effects. None of them can fail the booking.
func (s *BookingCoordinator) afterCreate(ctx context.Context, b *models.Booking, court *models.Court) *models.PaymentInfo {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	customer := "A customer"
	if s.deps.Users != nil {
		if u, err := s.deps.Users.GetUser(ctx, b.UserID); err == nil {
			customer = u.FullName
		} else {
			s.log.Warn().Err(err).Str("userId", b.UserID.String()).Msg("customer lookup failed")
		}
	}

	info := s.createPaymentLink(ctx, b, court, customer)

	if s.deps.Slots != nil {
		s.deps.Slots.BroadcastSlotsBooked(court.ID, b.ID, b.Items)
	}

	if s.deps.Holds != nil {
		var orderCode int64
		if info != nil {
			orderCode = info.OrderCode
		}
		if err := s.deps.Holds.StartHold(ctx, b.ID, orderCode); err != nil {
			s.log.Error().Err(err).Str("bookingId", b.ID.String()).Msg("failed to start payment hold")
		}
	}

	s.notifyAdmins(ctx, models.Notification{
		Type:  models.NotificationBookingCreated,
		Title: "New Booking Created",
		Message: fmt.Sprintf("Customer %s has created a new %s booking for %s. Total: %s %s",
			customer, strings.ToLower(string(b.BookingType)), court.Name, formatAmount(b.TotalPrice), s.cfg.CurrencyLabel),
		UserID:    &b.UserID,
		BookingID: &b.ID,
		CourtID:   &court.ID,
	})

	return info
}

func (s *BookingCoordinator) createPaymentLink(ctx context.Context, b *models.Booking, court *models.Court, customer string) *models.PaymentInfo {
	if s.deps.Gateway == nil {
		return nil
	}

	link, err := s.deps.Gateway.CreatePaymentLink(ctx, payment.LinkRequest{
		OrderID:     b.ID.String(),
		OrderCode:   payment.OrderCodeFor(b.ID),
		Amount:      b.TotalPrice,
		Description: fmt.Sprintf("Payment for %s - %s", court.Name, customer),
	})
	if err != nil {
		s.log.Error().Err(err).Str("bookingId", b.ID.String()).Msg("failed to create payment link")
		return nil
	}

	if s.deps.Payments != nil {
		record := &models.Payment{
			BookingID:   b.ID,
			Amount:      b.TotalPrice,
			OrderCode:   link.OrderCode,
			Status:      models.PaymentStatusPending,
			PaymentURL:  link.CheckoutURL,
			QRCode:      link.QRCode,
			ProviderRef: link.ProviderRef,
		}
		if err := s.deps.Payments.SavePayment(ctx, record); err != nil {
			s.log.Error().Err(err).Str("bookingId", b.ID.String()).Int64("orderCode", link.OrderCode).
				Msg("failed to record payment, expiring checkout")
			// an unrecorded checkout can never be matched by the webhook
			if cerr := s.deps.Gateway.Cancel(ctx, link.ProviderRef, "payment record not saved"); cerr != nil {
				s.log.Warn().Err(cerr).Str("bookingId", b.ID.String()).Msg("failed to expire checkout")
			}
			return nil
		}
	}

	return &models.PaymentInfo{
		PaymentURL: link.CheckoutURL,
		QRCode:     link.QRCode,
		OrderCode:  link.OrderCode,
	}
}

// GetMyBookings returns the caller's bookings, newest first
func (s *BookingCoordinator) GetMyBookings(ctx context.Context, actor models.Actor) ([]models.Booking, error) {
	return s.deps.Store.ListUserBookings(ctx, actor.UserID)
}

// GetBooking returns a booking visible to the caller
func (s *BookingCoordinator) GetBooking(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error) {
	b, err := s.deps.Store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, apperr.NotFound("booking", id)
	}
	return b, nil
}

// ListCourtBookings returns bookings on a court; customers only see their own
func (s *BookingCoordinator) ListCourtBookings(ctx context.Context, actor models.Actor, q models.BookingQuery) ([]models.Booking, error) {
	if !actor.IsAdmin() {
		q.UserID = &actor.UserID
	}
	return s.deps.Store.ListBookings(ctx, q)
}

// CancelBooking cancels a non-terminal booking and frees its slots
func (s *BookingCoordinator) CancelBooking(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "no reason given"
	}

	var prev models.BookingStatus
	b, err := s.mutate(ctx, id, func(b *models.Booking) error {
		if !actor.CanAccess(b.UserID) {
			return apperr.NotFound("booking", id)
		}
		prev = b.Status
		if err := applyStatus(b, models.BookingStatusCancelled); err != nil {
			return err
		}
		b.Note = appendNote(b.Note, "Cancelled: "+reason)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("bookingId", id.String()).Str("from", string(prev)).Msg("booking cancelled")
	s.afterRelease(ctx, b, models.HoldOutcomeCancelled, reason)
	s.notifyAdmins(ctx, models.Notification{
		Type:      models.NotificationBookingCancelled,
		Title:     "Booking Cancelled",
		Message:   fmt.Sprintf("Booking %s was cancelled: %s", b.ID, reason),
		UserID:    &b.UserID,
		BookingID: &b.ID,
	})
	return b, nil
}

// UpdateBookingStatus applies an administrative status change
func (s *BookingCoordinator) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid booking status %q", status)
	}

	b, err := s.mutate(ctx, id, func(b *models.Booking) error {
		return applyStatus(b, status)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("bookingId", id.String()).Str("status", string(status)).Msg("booking status updated")

	switch status {
	case models.BookingStatusCancelled, models.BookingStatusDeclined:
		s.afterRelease(ctx, b, strings.ToLower(string(status)), "status changed to "+string(status))
	case models.BookingStatusConfirmed:
		s.settleHold(ctx, b.ID, models.HoldOutcomeSettled)
	}

	s.notifyUser(ctx, b.UserID, models.Notification{
		Type:      models.NotificationBookingStatus,
		Title:     "Booking Updated",
		Message:   fmt.Sprintf("Your booking %s is now %s", b.ID, status),
		BookingID: &b.ID,
	})
	return b, nil
}

// UpdatePaymentStatus records a payment status. PAID confirms a pending
// booking. A nil actor is the payment webhook.
func (s *BookingCoordinator) UpdatePaymentStatus(ctx context.Context, actor *models.Actor, id uuid.UUID, status models.PaymentStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid payment status %q", status)
	}

	confirmed := false
	b, err := s.mutate(ctx, id, func(b *models.Booking) error {
		if actor != nil && !actor.CanAccess(b.UserID) {
			return apperr.NotFound("booking", id)
		}
		b.PaymentStatus = status
		if status == models.PaymentStatusPaid && b.Status == models.BookingStatusPending {
			confirmed = true
			return applyStatus(b, models.BookingStatusConfirmed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("bookingId", id.String()).Str("paymentStatus", string(status)).
		Bool("confirmed", confirmed).Msg("payment status updated")

	if status == models.PaymentStatusPaid && !confirmed && b.Status.Terminal() {
		s.log.Warn().Str("bookingId", id.String()).Str("status", string(b.Status)).
			Msg("payment received for a closed booking")
	}

	if confirmed {
		s.settleHold(ctx, b.ID, models.HoldOutcomePaid)
		s.notifyUser(ctx, b.UserID, models.Notification{
			Type:      models.NotificationBookingConfirmed,
			Title:     "Booking Confirmed",
			Message:   fmt.Sprintf("Payment received. Your booking %s is confirmed.", b.ID),
			BookingID: &b.ID,
		})
	}
	return b, nil
}

// ExpireUnpaidBooking cancels a booking that is still pending and unpaid.
// It reports whether the booking was expired and its resulting status.
func (s *BookingCoordinator) ExpireUnpaidBooking(ctx context.Context, id uuid.UUID) (bool, models.BookingStatus, error) {
	expired := false
	b, err := s.mutate(ctx, id, func(b *models.Booking) error {
		if b.Status != models.BookingStatusPending || b.PaymentStatus != models.PaymentStatusPending {
			return nil
		}
		expired = true
		b.Note = appendNote(b.Note, "Cancelled: payment window expired")
		return applyStatus(b, models.BookingStatusCancelled)
	})
	if err != nil {
		return false, "", err
	}
	if !expired {
		return false, b.Status, nil
	}

	s.log.Info().Str("bookingId", id.String()).Msg("unpaid booking expired")
	s.afterRelease(ctx, b, "", "payment window expired")
	s.notifyUser(ctx, b.UserID, models.Notification{
		Type:      models.NotificationBookingExpired,
		Title:     "Booking Expired",
		Message:   fmt.Sprintf("Your booking %s was cancelled because payment was not completed in time.", b.ID),
		BookingID: &b.ID,
	})
	return true, b.Status, nil
}

// mutate loads a booking under a row lock, applies fn and persists the result.
func (s *BookingCoordinator) mutate(ctx context.Context, id uuid.UUID, fn func(*models.Booking) error) (*models.Booking, error) {
	var out *models.Booking
	err := s.deps.Store.InTx(ctx, func(tx database.Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// afterRelease broadcasts freed slots, stops the hold timer and cancels any open
// payment link. An empty outcome means the hold itself triggered the release.
func (s *BookingCoordinator) afterRelease(ctx context.Context, b *models.Booking, outcome, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if s.deps.Slots != nil {
		for _, courtID := range b.CourtIDs() {
			s.deps.Slots.BroadcastSlotsReleased(courtID, b.ID, b.Items)
		}
	}

	if outcome != "" {
		s.settleHold(ctx, b.ID, outcome)
	}

	if s.deps.Gateway == nil || s.deps.Payments == nil || b.PaymentStatus != models.PaymentStatusPending {
		return
	}
	p, err := s.deps.Payments.GetPaymentByBookingID(ctx, b.ID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn().Err(err).Str("bookingId", b.ID.String()).Msg("payment lookup failed")
		}
		return
	}
	if err := s.deps.Gateway.Cancel(ctx, p.ProviderRef, reason); err != nil {
		s.log.Warn().Err(err).Str("bookingId", b.ID.String()).Msg("failed to cancel payment link")
	}
}

func (s *BookingCoordinator) settleHold(ctx context.Context, bookingID uuid.UUID, outcome string) {
	if s.deps.Holds == nil {
		return
	}
	if err := s.deps.Holds.SettleHold(ctx, bookingID, outcome); err != nil {
		s.log.Warn().Err(err).Str("bookingId", bookingID.String()).Msg("failed to settle payment hold")
	}
}

func (s *BookingCoordinator) notifyAdmins(ctx context.Context, n models.Notification) {
	if s.deps.Notifier == nil {
		return
	}
	n.CreatedAt = time.Now()
	if err := s.deps.Notifier.NotifyAdmins(ctx, n); err != nil {
		s.log.Error().Err(err).Str("type", string(n.Type)).Msg("failed to notify admins")
	}
}

func (s *BookingCoordinator) notifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) {
	if s.deps.Notifier == nil {
		return
	}
	n.CreatedAt = time.Now()
	n.UserID = &userID
	if err := s.deps.Notifier.NotifyUser(ctx, userID, n); err != nil {
		s.log.Error().Err(err).Str("type", string(n.Type)).Msg("failed to notify user")
	}
}

// applyStatus moves the booking to next and carries along every item that
// can make the same transition. Items already moved on their own stay put.
func applyStatus(b *models.Booking, next models.BookingStatus) error {
	if !b.Status.CanTransition(next) {
		return fmt.Errorf("%w: booking is %s, cannot become %s", apperr.ErrInvalidTransition, b.Status, next)
	}
	for i := range b.Items {
		if b.Items[i].Status.CanTransition(next) {
			b.Items[i].Status = next
		}
	}
	b.Status = next
	return nil
}

func appendNote(note *string, text string) *string {
	if note == nil || *note == "" {
		return &text
	}
	joined := *note + " | " + text
	return &joined
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
