package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
)

//go:embed schema.sql
var schema string

// DefaultLockTimeout bounds how long a booking transaction waits for a slot lock.
const DefaultLockTimeout = 5 * time.Second

// Tx is a booking transaction. Locks taken with LockCourtDay are held until
// the transaction ends and are released on every exit path.
type Tx interface {
	// LockCourtDay serializes writers of one court on one calendar day.
	LockCourtDay(ctx context.Context, courtID uuid.UUID, day calendar.Date) error
	// HasConflict reports whether a non-cancelled item of the court overlaps slot.
	HasConflict(ctx context.Context, courtID uuid.UUID, slot calendar.Interval) (bool, error)
	// InsertBooking persists the booking and all of its items.
	InsertBooking(ctx context.Context, b *models.Booking) error
	// GetBookingForUpdate loads a booking and locks it for the rest of the transaction.
	GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// UpdateBooking writes status, payment status, note and item statuses.
	UpdateBooking(ctx context.Context, b *models.Booking) error
}

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func cloneBooking(b *models.Booking) *models.Booking {
	c := *b
	c.Items = append([]models.BookingItem(nil), b.Items...)
	return &c
}

func cloneCourt(c *models.Court) *models.Court {
	out := *c
	out.Prices = make([]models.PriceRule, len(c.Prices))
	for i, p := range c.Prices {
		p.DaysOfWeek = append([]calendar.Weekday(nil), p.DaysOfWeek...)
		out.Prices[i] = p
	}
	return &out
}

func weekdaysToStrings(days []calendar.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

func stringsToWeekdays(days []string) []calendar.Weekday {
	out := make([]calendar.Weekday, len(days))
	for i, d := range days {
		out[i] = calendar.Weekday(d)
	}
	return out
}
