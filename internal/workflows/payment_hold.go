package workflows

import (
	"time"

	"github.com/longtrq26/court-booking-system/internal/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// DefaultHoldDuration is how long an unpaid booking keeps its slots
	DefaultHoldDuration = 15 * time.Minute
	// ExpireActivityName is the registered name of the expiry activity
	ExpireActivityName = "ExpireUnpaidBooking"
)

// PaymentHoldWorkflow waits for a booking to be paid or cancelled and expires it
// when the hold runs out first.
func PaymentHoldWorkflow(ctx workflow.Context, input models.PaymentHoldInput) (*models.PaymentHoldResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Payment hold started", "bookingId", input.BookingID, "orderCode", input.OrderCode)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	hold := input.HoldDuration
	if hold <= 0 {
		hold = DefaultHoldDuration
	}

	settledCh := workflow.GetSignalChannel(ctx, models.SignalHoldSettled)
	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, hold)

	result := &models.PaymentHoldResult{BookingID: input.BookingID}
	timedOut := false

	selector := workflow.NewSelector(ctx)
	selector.AddReceive(settledCh, func(c workflow.ReceiveChannel, more bool) {
		var signal models.HoldSettledSignal
		c.Receive(ctx, &signal)
		result.Outcome = signal.Outcome
		cancelTimer()
	})
	selector.AddFuture(timer, func(f workflow.Future) {
		timedOut = true
	})
	selector.Select(ctx)

	if !timedOut {
		logger.Info("Payment hold settled", "bookingId", input.BookingID, "outcome", result.Outcome)
		return result, nil
	}

	var expire models.ExpireBookingResult
	err := workflow.ExecuteActivity(ctx, ExpireActivityName, models.ExpireBookingInput{
		BookingID: input.BookingID,
	}).Get(ctx, &expire)
	if err != nil {
		logger.Error("Failed to expire booking", "bookingId", input.BookingID, "error", err)
		return nil, err
	}

	result.Expired = expire.Expired
	if expire.Expired {
		result.Outcome = models.HoldOutcomeExpired
	} else {
		result.Outcome = models.HoldOutcomeSettled
	}
	logger.Info("Payment hold ended", "bookingId", input.BookingID, "outcome", result.Outcome, "status", expire.Status)
	return result, nil
}
