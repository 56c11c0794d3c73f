package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
	pgLockNotAvailable   = "55P03"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles all database operations
type Repository struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool, lockTimeout time.Duration) *Repository {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Repository{pool: pool, lockTimeout: lockTimeout}
}

// --- Court Operations ---

const courtColumns = `c.id, c.name, c.location, c.description, c.type, c.is_active, c.created_at, c.updated_at`

func scanCourt(row pgx.Row, c *models.Court) error {
	return row.Scan(&c.ID, &c.Name, &c.Location, &c.Description, &c.Type, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}

// GetCourt returns a non-deleted court with its price rules
func (r *Repository) GetCourt(ctx context.Context, id uuid.UUID) (*models.Court, error) {
	query := `
		SELECT ` + courtColumns + `
		FROM courts c
		WHERE c.id = $1 AND c.deleted_at IS NULL
	`

	var c models.Court
	if err := scanCourt(r.pool.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("court", id)
		}
		return nil, fmt.Errorf("failed to get court: %w", err)
	}

	prices, err := loadPrices(ctx, r.pool, []uuid.UUID{c.ID})
	if err != nil {
		return nil, err
	}
	c.Prices = prices[c.ID]

	return &c, nil
}

// ListCourts returns one page of active courts matching the query and the total match count
func (r *Repository) ListCourts(ctx context.Context, q models.CourtQuery) ([]models.Court, int, error) {
	conds := []string{"c.deleted_at IS NULL", "c.is_active = TRUE"}
	var args []any

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		conds = append(conds, fmt.Sprintf("(c.name ILIKE $%d OR c.location ILIKE $%d)", len(args), len(args)))
	}
	if q.Type != nil {
		args = append(args, *q.Type)
		conds = append(conds, fmt.Sprintf("c.type = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courts c WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count courts: %w", err)
	}

	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	query := `
		SELECT ` + courtColumns + `
		FROM courts c
		WHERE ` + where + `
		ORDER BY c.created_at DESC
		LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query courts: %w", err)
	}
	defer rows.Close()

	var courts []models.Court
	var ids []uuid.UUID
	for rows.Next() {
		var c models.Court
		if err := scanCourt(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("failed to scan court: %w", err)
		}
		courts = append(courts, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read courts: %w", err)
	}

	prices, err := loadPrices(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range courts {
		courts[i].Prices = prices[courts[i].ID]
	}

	return courts, total, nil
}

// CreateCourt inserts a court and its price rules in one transaction
func (r *Repository) CreateCourt(ctx context.Context, c *models.Court) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM courts WHERE name = $1 AND location = $2 AND deleted_at IS NULL)
	`, c.Name, c.Location).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check court uniqueness: %w", err)
	}
	if exists {
		return apperr.ErrDuplicateCourt
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO courts (id, name, location, description, type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Location, c.Description, c.Type, c.IsActive).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return apperr.ErrDuplicateCourt
		}
		return fmt.Errorf("failed to create court: %w", err)
	}

	if err := insertPrices(ctx, tx, c); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateCourt writes court fields and, when replacePrices is set, swaps the whole rule set
func (r *Repository) UpdateCourt(ctx context.Context, c *models.Court, replacePrices bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		UPDATE courts
		SET name = $1, location = $2, description = $3, type = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING updated_at
	`, c.Name, c.Location, c.Description, c.Type, c.IsActive, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("court", c.ID)
		}
		if isPgError(err, pgUniqueViolation) {
			return apperr.ErrDuplicateCourt
		}
		return fmt.Errorf("failed to update court: %w", err)
	}

	if replacePrices {
		if _, err := tx.Exec(ctx, `DELETE FROM court_prices WHERE court_id = $1`, c.ID); err != nil {
			return fmt.Errorf("failed to clear court prices: %w", err)
		}
		if err := insertPrices(ctx, tx, c); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteCourt soft-deletes a court
func (r *Repository) DeleteCourt(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE courts SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete court: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("court", id)
	}
	return nil
}

func insertPrices(ctx context.Context, q querier, c *models.Court) error {
	for i := range c.Prices {
		p := &c.Prices[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.CourtID = c.ID
		_, err := q.Exec(ctx, `
			INSERT INTO court_prices (id, court_id, start_minute, end_minute, days_of_week, price, priority, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.ID, p.CourtID, int(p.StartTime), int(p.EndTime), weekdaysToStrings(p.DaysOfWeek),
			p.PricePerHour, p.Priority, p.Note)
		if err != nil {
			return fmt.Errorf("failed to insert court price: %w", err)
		}
	}
	return nil
}

func loadPrices(ctx context.Context, q querier, courtIDs []uuid.UUID) (map[uuid.UUID][]models.PriceRule, error) {
	out := make(map[uuid.UUID][]models.PriceRule)
	if len(courtIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
		SELECT id, court_id, start_minute, end_minute, days_of_week, price, priority, note
		FROM court_prices
		WHERE court_id = ANY($1)
		ORDER BY priority DESC, start_minute ASC
	`, courtIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query court prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PriceRule
		var start, end int
		var days []string
		if err := rows.Scan(&p.ID, &p.CourtID, &start, &end, &days, &p.PricePerHour, &p.Priority, &p.Note); err != nil {
			return nil, fmt.Errorf("failed to scan court price: %w", err)
		}
		p.StartTime = calendar.Clock(start)
		p.EndTime = calendar.Clock(end)
		p.DaysOfWeek = stringsToWeekdays(days)
		out[p.CourtID] = append(out[p.CourtID], p)
	}

	return out, rows.Err()
}

// --- Booking Operations ---

const bookingColumns = `b.id, b.user_id, b.total_price, b.status, b.payment_status, b.booking_type, b.note, b.created_at, b.updated_at`

func scanBooking(row pgx.Row, b *models.Booking) error {
	return row.Scan(&b.ID, &b.UserID, &b.TotalPrice, &b.Status, &b.PaymentStatus, &b.BookingType,
		&b.Note, &b.CreatedAt, &b.UpdatedAt)
}

// InTx runs fn in a booking transaction bounded by the repository's lock timeout
func (r *Repository) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	timeout := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
	if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return translateWriteError(err, nil)
	}
	return nil
}

// GetBooking returns a booking with its items
func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return getBooking(ctx, r.pool, id, false)
}

// ListUserBookings returns the user's bookings, newest first
func (r *Repository) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`
	return r.queryBookings(ctx, query, userID)
}

// ListBookings returns bookings with at least one item matching the query
func (r *Repository) ListBookings(ctx context.Context, q models.BookingQuery) ([]models.Booking, error) {
	conds := []string{"bi.court_id = $1"}
	args := []any{q.CourtID}

	if q.Date != nil {
		args = append(args, q.Date.Time())
		conds = append(conds, fmt.Sprintf("bi.ref_date = $%d", len(args)))
	}
	if q.Status != nil {
		args = append(args, *q.Status)
		conds = append(conds, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if q.UserID != nil {
		args = append(args, *q.UserID)
		conds = append(conds, fmt.Sprintf("b.user_id = $%d", len(args)))
	}

	query := `
		SELECT DISTINCT ` + bookingColumns + `
		FROM bookings b
		JOIN booking_items bi ON bi.booking_id = b.id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY b.created_at DESC
	`
	return r.queryBookings(ctx, query, args...)
}

func (r *Repository) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	var ids []uuid.UUID
	for rows.Next() {
		var b models.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}

	items, err := loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Items = items[bookings[i].ID]
	}

	return bookings, nil
}

// ListOccupancy returns the court's non-cancelled items with reference dates in [from, to]
func (r *Repository) ListOccupancy(ctx context.Context, courtID uuid.UUID, from, to calendar.Date) ([]models.Occupancy, error) {
	query := `
		SELECT bi.id, bi.booking_id, b.user_id, bi.court_id, bi.start_time, bi.end_time,
		       bi.ref_date, bi.status, b.note
		FROM booking_items bi
		JOIN bookings b ON b.id = bi.booking_id
		WHERE bi.court_id = $1 AND bi.ref_date BETWEEN $2 AND $3 AND bi.status <> 'CANCELLED'
		ORDER BY bi.start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, courtID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy: %w", err)
	}
	defer rows.Close()

	var out []models.Occupancy
	for rows.Next() {
		var o models.Occupancy
		var refDate time.Time
		err := rows.Scan(&o.ItemID, &o.BookingID, &o.UserID, &o.CourtID, &o.StartTime, &o.EndTime,
			&refDate, &o.Status, &o.Note)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occupancy: %w", err)
		}
		o.RefDate = calendar.DateOf(refDate)
		out = append(out, o)
	}

	return out, rows.Err()
}

func getBooking(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b models.Booking
	if err := scanBooking(q.QueryRow(ctx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("booking", id)
		}
		if isPgError(err, pgLockNotAvailable) {
			return nil, apperr.ErrLockTimeout
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	items, err := loadItems(ctx, q, []uuid.UUID{b.ID})
	if err != nil {
		return nil, err
	}
	b.Items = items[b.ID]

	return &b, nil
}

func loadItems(ctx context.Context, q querier, bookingIDs []uuid.UUID) (map[uuid.UUID][]models.BookingItem, error) {
	out := make(map[uuid.UUID][]models.BookingItem)
	if len(bookingIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
		SELECT id, booking_id, court_id, start_time, end_time, ref_date, price, status
		FROM booking_items
		WHERE booking_id = ANY($1)
		ORDER BY start_time ASC
	`, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.BookingItem
		var refDate time.Time
		if err := rows.Scan(&it.ID, &it.BookingID, &it.CourtID, &it.StartTime, &it.EndTime,
			&refDate, &it.Price, &it.Status); err != nil {
			return nil, fmt.Errorf("failed to scan booking item: %w", err)
		}
		it.RefDate = calendar.DateOf(refDate)
		out[it.BookingID] = append(out[it.BookingID], it)
	}

	return out, rows.Err()
}

// pgTx implements Tx on a pgx transaction
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockCourtDay(ctx context.Context, courtID uuid.UUID, day calendar.Date) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), $2)`, courtID.String(), day.DayNumber())
	if err != nil {
		if isPgError(err, pgLockNotAvailable) {
			return apperr.ErrLockTimeout
		}
		return fmt.Errorf("failed to lock court %s on %s: %w", courtID, day, err)
	}
	return nil
}

func (t *pgTx) HasConflict(ctx context.Context, courtID uuid.UUID, slot calendar.Interval) (bool, error) {
	var busy bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM booking_items
			WHERE court_id = $1 AND status <> 'CANCELLED'
			  AND start_time < $3 AND end_time > $2
		)
	`, courtID, slot.Start, slot.End).Scan(&busy)
	if err != nil {
		return false, fmt.Errorf("failed to check slot conflict: %w", err)
	}
	return busy, nil
}

func (t *pgTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO bookings (id, user_id, total_price, status, payment_status, booking_type, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, b.ID, b.UserID, b.TotalPrice, b.Status, b.PaymentStatus, b.BookingType, b.Note).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	for i := range b.Items {
		it := &b.Items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.BookingID = b.ID
		_, err := t.tx.Exec(ctx, `
			INSERT INTO booking_items (id, booking_id, court_id, start_time, end_time, ref_date, price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, it.ID, it.BookingID, it.CourtID, it.StartTime, it.EndTime, it.RefDate.Time(), it.Price, it.Status)
		if err != nil {
			return translateWriteError(err, it)
		}
	}

	return nil
}

func (t *pgTx) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return getBooking(ctx, t.tx, id, true)
}

func (t *pgTx) UpdateBooking(ctx context.Context, b *models.Booking) error {
	err := t.tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = $1, payment_status = $2, note = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, b.Status, b.PaymentStatus, b.Note, b.ID).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("booking", b.ID)
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}

	for _, it := range b.Items {
		if _, err := t.tx.Exec(ctx, `UPDATE booking_items SET status = $1 WHERE id = $2`, it.Status, it.ID); err != nil {
			return translateWriteError(err, &it)
		}
	}

	return nil
}

// --- Payment Operations ---

const paymentColumns = `id, booking_id, amount, order_code, status, payment_url, qr_code, provider_ref, transaction_id, created_at, updated_at`

func scanPayment(row pgx.Row, p *models.Payment) error {
	var qr *string
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.OrderCode, &p.Status, &p.PaymentURL, &qr,
		&p.ProviderRef, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if qr != nil {
		p.QRCode = *qr
	}
	return err
}

// SavePayment inserts a payment record
func (r *Repository) SavePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, booking_id, amount, order_code, status, payment_url, qr_code, provider_ref, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, p.ID, p.BookingID, p.Amount, p.OrderCode, p.Status, p.PaymentURL, p.QRCode, p.ProviderRef,
		p.TransactionID).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// GetPaymentByOrderCode returns a payment by its order code
func (r *Repository) GetPaymentByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error) {
	var p models.Payment
	err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_code = $1`, orderCode), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment", orderCode)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// GetPaymentByBookingID returns the latest payment of a booking
func (r *Repository) GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := scanPayment(r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, bookingID), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment for booking", bookingID)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// UpdatePayment updates status and transaction id
func (r *Repository) UpdatePayment(ctx context.Context, p *models.Payment) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE payments SET status = $1, transaction_id = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, p.Status, p.TransactionID, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("payment", p.ID)
		}
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

// --- User Operations ---

// GetUser returns a user by ID
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, role FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.FullName, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// translateWriteError maps constraint violations on booking_items to domain errors.
func translateWriteError(err error, item *models.BookingItem) error {
	switch {
	case isPgError(err, pgExclusionViolation):
		if item != nil {
			return &apperr.SlotBusyError{CourtID: item.CourtID, Start: item.StartTime, End: item.EndTime}
		}
		return apperr.ErrSlotBusy
	case isPgError(err, pgLockNotAvailable):
		return apperr.ErrLockTimeout
	}
	return fmt.Errorf("failed to write booking: %w", err)
}
