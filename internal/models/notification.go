package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "BOOKING_CREATED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingExpired   NotificationType = "BOOKING_EXPIRED"
	NotificationBookingStatus    NotificationType = "BOOKING_STATUS_CHANGED"
	NotificationPaymentReceived  NotificationType = "PAYMENT_RECEIVED"
)

// Notification is a fire-and-forget message to administrators or one user
type Notification struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	UserID    *uuid.UUID       `json:"userId,omitempty"`
	BookingID *uuid.UUID       `json:"bookingId,omitempty"`
	CourtID   *uuid.UUID       `json:"courtId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
