// Package apperr defines the error categories surfaced by the booking core.
// Callers classify with errors.Is against the category sentinels.
package apperr

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Categories
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrPricing      = errors.New("pricing failed")
	ErrNotFound     = errors.New("not found")
	ErrPayment      = errors.New("payment gateway error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Validation
var (
	ErrMissingDate       = fmt.Errorf("%w: date is required for SINGLE booking", ErrValidation)
	ErrMissingRange      = fmt.Errorf("%w: startDate, endDate and daysOfWeek are required for FIXED booking", ErrValidation)
	ErrNoSlotsGenerated  = fmt.Errorf("%w: no valid slots generated for the requested dates", ErrValidation)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrValidation)
)

// Conflict
var (
	ErrSlotBusy       = fmt.Errorf("%w: time slot is already booked", ErrConflict)
	ErrDuplicateCourt = fmt.Errorf("%w: court with this name and location already exists", ErrConflict)
	ErrLockTimeout    = fmt.Errorf("%w: timed out waiting for slot lock", ErrConflict)
)

// Pricing
var (
	ErrNoMatchingRule      = fmt.Errorf("%w: no matching price rule", ErrPricing)
	ErrNonPositiveDuration = fmt.Errorf("%w: end time must be after start time", ErrPricing)
)

// SlotBusyError identifies the candidate slot that collided with an active reservation.
type SlotBusyError struct {
	CourtID uuid.UUID
	Start   time.Time
	End     time.Time
}

func (e *SlotBusyError) Error() string {
	return fmt.Sprintf("time slot %s %s-%s is already booked",
		e.Start.Format("2006-01-02"), e.Start.Format("15:04"), e.End.Format("15:04"))
}

func (e *SlotBusyError) Unwrap() error {
	return ErrSlotBusy
}

// Validation wraps a free-form validation message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound reports a missing entity by kind and id.
func NotFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
}
