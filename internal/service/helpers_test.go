package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/database"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/payment"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	monday    = calendar.NewDate(2026, time.January, 5)
	tuesday   = calendar.NewDate(2026, time.January, 6)
	wednesday = calendar.NewDate(2026, time.January, 7)
)

type fakeGateway struct {
	mu        sync.Mutex
	failNext  bool
	created   []payment.LinkRequest
	cancelled []string
	status    *payment.Status
	event     *payment.WebhookEvent
}

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (*payment.Link, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext {
		g.failNext = false
		return nil, errors.New("provider unavailable")
	}
	g.created = append(g.created, req)
	return &payment.Link{
		CheckoutURL: "https://checkout.example/" + req.OrderID,
		QRCode:      "data:image/png;base64,AAAA",
		OrderCode:   req.OrderCode,
		ProviderRef: "cs_" + req.OrderID,
	}, nil
}

func (g *fakeGateway) GetStatus(ctx context.Context, providerRef string) (*payment.Status, error) {
	if g.status == nil {
		return nil, errors.New("unknown session")
	}
	return g.status, nil
}

func (g *fakeGateway) Cancel(ctx context.Context, providerRef, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, providerRef)
	return nil
}

func (g *fakeGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != "valid" || g.event == nil {
		return nil, errors.New("signature mismatch")
	}
	return g.event, nil
}

func (g *fakeGateway) cancelCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancelled)
}

type recordingNotifier struct {
	mu     sync.Mutex
	fail   bool
	admins []models.Notification
	users  []models.Notification
}

func (n *recordingNotifier) NotifyAdmins(ctx context.Context, msg models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker down")
	}
	n.admins = append(n.admins, msg)
	return nil
}

func (n *recordingNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, msg models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker down")
	}
	n.users = append(n.users, msg)
	return nil
}

type recordingHolds struct {
	mu      sync.Mutex
	started []uuid.UUID
	settled map[uuid.UUID]string
}

func (h *recordingHolds) StartHold(ctx context.Context, bookingID uuid.UUID, orderCode int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, bookingID)
	return nil
}

func (h *recordingHolds) SettleHold(ctx context.Context, bookingID uuid.UUID, outcome string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled == nil {
		h.settled = make(map[uuid.UUID]string)
	}
	h.settled[bookingID] = outcome
	return nil
}

type recordingSlots struct {
	mu       sync.Mutex
	booked   int
	released int
}

func (s *recordingSlots) BroadcastSlotsBooked(courtID, bookingID uuid.UUID, items []models.BookingItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booked++
}

func (s *recordingSlots) BroadcastSlotsReleased(courtID, bookingID uuid.UUID, items []models.BookingItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) Claim(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memDeduper) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

type failingPayments struct {
	*database.MemoryStore
}

func (failingPayments) SavePayment(ctx context.Context, p *models.Payment) error {
	return errors.New("duplicate order code")
}

type fixture struct {
	store    *database.MemoryStore
	court    *models.Court
	gateway  *fakeGateway
	notifier *recordingNotifier
	holds    *recordingHolds
	slots    *recordingSlots
	svc      *BookingCoordinator
	customer models.Actor
	admin    models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    database.NewMemoryStore(2 * time.Second),
		gateway:  &fakeGateway{},
		notifier: &recordingNotifier{},
		holds:    &recordingHolds{},
		slots:    &recordingSlots{},
		customer: models.Actor{UserID: uuid.New(), Role: models.RoleCustomer},
		admin:    models.Actor{UserID: uuid.New(), Role: models.RoleAdmin},
	}
	f.store.PutUser(models.User{ID: f.customer.UserID, FullName: "Nguyen Van A", Email: "a@example.com", Role: models.RoleCustomer})

	f.court = &models.Court{
		Name:     "Court 1",
		Location: "District 7",
		Type:     models.CourtTypeBadminton,
		IsActive: true,
		Prices: []models.PriceRule{
			{
				StartTime:    calendar.MustClock("06:00"),
				EndTime:      calendar.MustClock("22:00"),
				DaysOfWeek:   []calendar.Weekday{calendar.Monday, calendar.Wednesday, calendar.Friday},
				PricePerHour: 100,
			},
			{
				StartTime:    calendar.MustClock("17:00"),
				EndTime:      calendar.MustClock("19:00"),
				DaysOfWeek:   []calendar.Weekday{calendar.Monday},
				PricePerHour: 200,
				Priority:     10,
			},
		},
	}
	require.NoError(t, f.store.CreateCourt(context.Background(), f.court))

	f.svc = NewBookingCoordinator(BookingDeps{
		Courts:   f.store,
		Store:    f.store,
		Payments: f.store,
		Users:    f.store,
		Gateway:  f.gateway,
		Notifier: f.notifier,
		Holds:    f.holds,
		Slots:    f.slots,
	}, BookingConfig{Location: time.UTC}, zerolog.Nop())

	return f
}

func single(courtID uuid.UUID, day calendar.Date, start, end string) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		CourtID:   courtID,
		Type:      models.BookingTypeSingle,
		Date:      &day,
		StartTime: calendar.MustClock(start),
		EndTime:   calendar.MustClock(end),
	}
}

func fixed(courtID uuid.UUID, from, to calendar.Date, start, end string, days ...calendar.Weekday) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		CourtID:    courtID,
		Type:       models.BookingTypeFixed,
		StartDate:  &from,
		EndDate:    &to,
		DaysOfWeek: days,
		StartTime:  calendar.MustClock(start),
		EndTime:    calendar.MustClock(end),
	}
}

func (f *fixture) activeItems(t *testing.T) int {
	t.Helper()
	occ, err := f.store.ListOccupancy(context.Background(), f.court.ID, monday.AddDays(-30), monday.AddDays(60))
	require.NoError(t, err)
	return len(occ)
}
