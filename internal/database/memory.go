package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
)

// MemoryStore keeps all state in process. It follows the same locking
// protocol as Repository and backs local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	courts   map[uuid.UUID]*models.Court
	bookings map[uuid.UUID]*models.Booking
	payments map[uuid.UUID]*models.Payment
	users    map[uuid.UUID]*models.User

	locksMu     sync.Mutex
	locks       map[string]chan struct{}
	lockTimeout time.Duration

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(lockTimeout time.Duration) *MemoryStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &MemoryStore{
		courts:      make(map[uuid.UUID]*models.Court),
		bookings:    make(map[uuid.UUID]*models.Booking),
		payments:    make(map[uuid.UUID]*models.Payment),
		users:       make(map[uuid.UUID]*models.User),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// PutUser registers a user for directory lookups.
func (s *MemoryStore) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// --- Courts ---

func (s *MemoryStore) GetCourt(ctx context.Context, id uuid.UUID) (*models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courts[id]
	if !ok || c.DeletedAt != nil {
		return nil, apperr.NotFound("court", id)
	}
	return cloneCourt(c), nil
}

func (s *MemoryStore) ListCourts(ctx context.Context, q models.CourtQuery) ([]models.Court, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var matched []models.Court
	for _, c := range s.courts {
		if c.DeletedAt != nil || !c.IsActive {
			continue
		}
		if q.Type != nil && c.Type != *q.Type {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Location), search) {
			continue
		}
		matched = append(matched, *cloneCourt(c))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	from := (q.Page - 1) * q.Limit
	if from < 0 || from > total {
		from = total
	}
	to := from + q.Limit
	if to > total {
		to = total
	}
	return matched[from:to], total, nil
}

func (s *MemoryStore) CreateCourt(ctx context.Context, c *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.courts {
		if existing.DeletedAt == nil && existing.Name == c.Name && existing.Location == c.Location {
			return apperr.ErrDuplicateCourt
		}
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	for i := range c.Prices {
		if c.Prices[i].ID == uuid.Nil {
			c.Prices[i].ID = uuid.New()
		}
		c.Prices[i].CourtID = c.ID
	}
	s.courts[c.ID] = cloneCourt(c)
	return nil
}

func (s *MemoryStore) UpdateCourt(ctx context.Context, c *models.Court, replacePrices bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.courts[c.ID]
	if !ok || existing.DeletedAt != nil {
		return apperr.NotFound("court", c.ID)
	}
	for id, other := range s.courts {
		if id != c.ID && other.DeletedAt == nil && other.Name == c.Name && other.Location == c.Location {
			return apperr.ErrDuplicateCourt
		}
	}

	c.UpdatedAt = s.now()
	c.CreatedAt = existing.CreatedAt
	if replacePrices {
		for i := range c.Prices {
			if c.Prices[i].ID == uuid.Nil {
				c.Prices[i].ID = uuid.New()
			}
			c.Prices[i].CourtID = c.ID
		}
	} else {
		c.Prices = cloneCourt(existing).Prices
	}
	s.courts[c.ID] = cloneCourt(c)
	return nil
}

func (s *MemoryStore) DeleteCourt(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courts[id]
	if !ok || c.DeletedAt != nil {
		return apperr.NotFound("court", id)
	}
	now := s.now()
	c.DeletedAt = &now
	c.UpdatedAt = now
	return nil
}

// --- Bookings ---

func (s *MemoryStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx := &memTx{store: s, held: make(map[string]chan struct{})}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *MemoryStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking", id)
	}
	return cloneBooking(b), nil
}

func (s *MemoryStore) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return s.listBookings(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (s *MemoryStore) ListBookings(ctx context.Context, q models.BookingQuery) ([]models.Booking, error) {
	return s.listBookings(func(b *models.Booking) bool {
		if q.Status != nil && b.Status != *q.Status {
			return false
		}
		if q.UserID != nil && b.UserID != *q.UserID {
			return false
		}
		for _, it := range b.Items {
			if it.CourtID == q.CourtID && (q.Date == nil || it.RefDate == *q.Date) {
				return true
			}
		}
		return false
	}), nil
}

func (s *MemoryStore) listBookings(match func(*models.Booking) bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Booking
	for _, b := range s.bookings {
		if match(b) {
			out = append(out, *cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) ListOccupancy(ctx context.Context, courtID uuid.UUID, from, to calendar.Date) ([]models.Occupancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Occupancy
	for _, b := range s.bookings {
		for _, it := range b.Items {
			if it.CourtID != courtID || it.Status == models.BookingStatusCancelled {
				continue
			}
			if it.RefDate.Before(from) || it.RefDate.After(to) {
				continue
			}
			out = append(out, models.Occupancy{
				ItemID:    it.ID,
				BookingID: b.ID,
				UserID:    b.UserID,
				CourtID:   it.CourtID,
				StartTime: it.StartTime,
				EndTime:   it.EndTime,
				RefDate:   it.RefDate,
				Status:    it.Status,
				Note:      b.Note,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// --- Payments ---

func (s *MemoryStore) SavePayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.OrderCode == p.OrderCode {
			return fmt.Errorf("failed to save payment: order code %d already exists", p.OrderCode)
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPaymentByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if p.OrderCode == orderCode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("payment", orderCode)
}

func (s *MemoryStore) GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Payment
	for _, p := range s.payments {
		if p.BookingID == bookingID && (latest == nil || p.CreatedAt.After(latest.CreatedAt)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("payment for booking", bookingID)
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.payments[p.ID]
	if !ok {
		return apperr.NotFound("payment", p.ID)
	}
	existing.Status = p.Status
	existing.TransactionID = p.TransactionID
	existing.UpdatedAt = s.now()
	p.UpdatedAt = existing.UpdatedAt
	return nil
}

// --- Users ---

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

// --- Locks ---

func (s *MemoryStore) acquire(ctx context.Context, key string) (chan struct{}, error) {
	s.locksMu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.locksMu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	select {
	case ch <- struct{}{}:
		return ch, nil
	case <-lockCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, apperr.ErrLockTimeout
	}
}

// memTx stages writes and applies them on commit
type memTx struct {
	store    *MemoryStore
	held     map[string]chan struct{}
	inserted []*models.Booking
	updated  []*models.Booking
}

func (t *memTx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch, err := t.store.acquire(ctx, key)
	if err != nil {
		return err
	}
	t.held[key] = ch
	return nil
}

func (t *memTx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

func (t *memTx) LockCourtDay(ctx context.Context, courtID uuid.UUID, day calendar.Date) error {
	return t.lock(ctx, "court:"+courtID.String()+":"+day.String())
}

func (t *memTx) HasConflict(ctx context.Context, courtID uuid.UUID, slot calendar.Interval) (bool, error) {
	check := func(b *models.Booking) bool {
		for _, it := range b.Items {
			if it.CourtID == courtID && it.Status != models.BookingStatusCancelled && it.Interval().Overlaps(slot) {
				return true
			}
		}
		return false
	}

	for _, b := range t.inserted {
		if check(b) {
			return true, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, b := range t.store.bookings {
		if check(b) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := t.store.now()
	b.CreatedAt, b.UpdatedAt = now, now
	for i := range b.Items {
		if b.Items[i].ID == uuid.Nil {
			b.Items[i].ID = uuid.New()
		}
		b.Items[i].BookingID = b.ID
	}
	t.inserted = append(t.inserted, cloneBooking(b))
	return nil
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if err := t.lock(ctx, "booking:"+id.String()); err != nil {
		return nil, err
	}
	return t.store.GetBooking(ctx, id)
}

func (t *memTx) UpdateBooking(ctx context.Context, b *models.Booking) error {
	t.store.mu.RLock()
	_, ok := t.store.bookings[b.ID]
	t.store.mu.RUnlock()
	if !ok {
		return apperr.NotFound("booking", b.ID)
	}
	b.UpdatedAt = t.store.now()
	t.updated = append(t.updated, cloneBooking(b))
	return nil
}

func (t *memTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, b := range t.inserted {
		t.store.bookings[b.ID] = b
	}
	for _, b := range t.updated {
		existing := t.store.bookings[b.ID]
		b.CreatedAt = existing.CreatedAt
		t.store.bookings[b.ID] = b
	}
	return nil
}
