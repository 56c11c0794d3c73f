package models

import "time"

// PaymentHoldInput starts the unpaid-booking expiry workflow
type PaymentHoldInput struct {
	BookingID    string        `json:"bookingId"`
	OrderCode    int64         `json:"orderCode,omitempty"`
	HoldDuration time.Duration `json:"holdDuration"`
}

// PaymentHoldResult reports how the hold ended
type PaymentHoldResult struct {
	BookingID string `json:"bookingId"`
	Outcome   string `json:"outcome"`
	Expired   bool   `json:"expired"`
}

// Hold outcomes
const (
	HoldOutcomePaid      = "paid"
	HoldOutcomeCancelled = "cancelled"
	HoldOutcomeExpired   = "expired"
	HoldOutcomeSettled   = "already_settled"
)

// Signals for workflow communication
const (
	SignalHoldSettled = "hold_settled"
)

// HoldSettledSignal is sent when a booking is paid or cancelled before the hold runs out
type HoldSettledSignal struct {
	Outcome string `json:"outcome"`
}

// ExpireBookingInput is the activity input for expiring an unpaid booking
type ExpireBookingInput struct {
	BookingID string `json:"bookingId"`
}

// ExpireBookingResult is the activity result
type ExpireBookingResult struct {
	Expired bool   `json:"expired"`
	Status  string `json:"status"`
}
