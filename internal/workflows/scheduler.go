package workflows

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

// DefaultTaskQueue is the queue the worker polls for payment hold workflows
const DefaultTaskQueue = "court-booking-tasks"

// WorkflowID returns the payment hold workflow id for a booking
func WorkflowID(bookingID uuid.UUID) string {
	return "payment-hold-" + bookingID.String()
}

// TemporalHoldScheduler starts and settles payment holds on a Temporal cluster
type TemporalHoldScheduler struct {
	client    client.Client
	taskQueue string
	hold      time.Duration
}

func NewTemporalHoldScheduler(c client.Client, taskQueue string, hold time.Duration) *TemporalHoldScheduler {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	if hold <= 0 {
		hold = DefaultHoldDuration
	}
	return &TemporalHoldScheduler{client: c, taskQueue: taskQueue, hold: hold}
}

// StartHold starts the expiry timer for a new booking
func (s *TemporalHoldScheduler) StartHold(ctx context.Context, bookingID uuid.UUID, orderCode int64) error {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(bookingID),
		TaskQueue: s.taskQueue,
	}
	_, err := s.client.ExecuteWorkflow(ctx, opts, PaymentHoldWorkflow, models.PaymentHoldInput{
		BookingID:    bookingID.String(),
		OrderCode:    orderCode,
		HoldDuration: s.hold,
	})
	return err
}

// SettleHold stops the timer of a booking that was paid or cancelled.
// A hold that already finished is not an error.
func (s *TemporalHoldScheduler) SettleHold(ctx context.Context, bookingID uuid.UUID, outcome string) error {
	err := s.client.SignalWorkflow(ctx, WorkflowID(bookingID), "", models.SignalHoldSettled, models.HoldSettledSignal{
		Outcome: outcome,
	})
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}
