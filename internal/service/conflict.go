package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/database"
)

// ConflictGuard enforces per-court exclusivity inside a booking transaction.
type ConflictGuard struct{}

// Acquire takes the exclusive lock covering the slot. Callers acquire slots in
// ascending time order.
func (ConflictGuard) Acquire(ctx context.Context, tx database.Tx, courtID uuid.UUID, slot Slot) error {
	if err := tx.LockCourtDay(ctx, courtID, slot.RefDate); err != nil {
		return fmt.Errorf("lock %s: %w", slot.RefDate, err)
	}
	return nil
}

// Check fails with *apperr.SlotBusyError when the slot overlaps a non-cancelled
// item of the court. An empty or reversed range overlaps nothing.
func (ConflictGuard) Check(ctx context.Context, tx database.Tx, courtID uuid.UUID, slot Slot) error {
	if !slot.End.After(slot.Start) {
		return nil
	}
	busy, err := tx.HasConflict(ctx, courtID, slot.Interval())
	if err != nil {
		return err
	}
	if busy {
		return &apperr.SlotBusyError{CourtID: courtID, Start: slot.Start, End: slot.End}
	}
	return nil
}
