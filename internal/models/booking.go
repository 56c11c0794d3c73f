package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/calendar"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusDeclined  BookingStatus = "DECLINED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusDeclined},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled,
		BookingStatusCompleted, BookingStatusDeclined:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s BookingStatus) Terminal() bool {
	return s.Valid() && len(bookingTransitions[s]) == 0
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	}
	return false
}

type BookingType string

const (
	BookingTypeSingle BookingType = "SINGLE"
	BookingTypeFixed  BookingType = "FIXED"
)

// Booking is the aggregate root for its items
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"userId"`
	TotalPrice    float64       `json:"totalPrice"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	BookingType   BookingType   `json:"bookingType"`
	Note          *string       `json:"note,omitempty"`
	Items         []BookingItem `json:"items"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// BookingItem is one reserved slot on one court
type BookingItem struct {
	ID        uuid.UUID     `json:"id"`
	BookingID uuid.UUID     `json:"bookingId"`
	CourtID   uuid.UUID     `json:"courtId"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	RefDate   calendar.Date `json:"refDate"`
	Price     float64       `json:"price"`
	Status    BookingStatus `json:"status"`
}

// Interval returns the item's half-open time range.
func (i BookingItem) Interval() calendar.Interval {
	return calendar.Interval{Start: i.StartTime, End: i.EndTime}
}

// CourtIDs returns the distinct courts referenced by the booking's items.
func (b *Booking) CourtIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range b.Items {
		if !seen[item.CourtID] {
			seen[item.CourtID] = true
			ids = append(ids, item.CourtID)
		}
	}
	return ids
}

// CreateBookingRequest represents a request to reserve one or more slots on a court
type CreateBookingRequest struct {
	CourtID    uuid.UUID          `json:"courtId"`
	Type       BookingType        `json:"type"`
	Date       *calendar.Date     `json:"date,omitempty"`
	StartDate  *calendar.Date     `json:"startDate,omitempty"`
	EndDate    *calendar.Date     `json:"endDate,omitempty"`
	DaysOfWeek []calendar.Weekday `json:"daysOfWeek,omitempty"`
	StartTime  calendar.Clock     `json:"startTime"`
	EndTime    calendar.Clock     `json:"endTime"`
	Note       *string            `json:"note,omitempty"`
}

// PaymentInfo is returned when a payment link was created for a booking
type PaymentInfo struct {
	PaymentURL string `json:"paymentUrl"`
	QRCode     string `json:"qrCode"`
	OrderCode  int64  `json:"orderCode"`
}

// BookingResponse is a booking plus optional payment information
type BookingResponse struct {
	*Booking
	PaymentInfo *PaymentInfo `json:"paymentInfo,omitempty"`
}

// CancelBookingRequest carries the cancellation reason
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// UpdateBookingStatusRequest is used by administrators
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status"`
}

// UpdatePaymentStatusRequest sets a booking's payment status
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// BookingQuery filters bookings of one court. Nil fields are not applied.
type BookingQuery struct {
	CourtID uuid.UUID
	Date    *calendar.Date
	Status  *BookingStatus
	UserID  *uuid.UUID
}

// Occupancy is an active booking item joined with its booking, used by the schedule view
type Occupancy struct {
	ItemID    uuid.UUID
	BookingID uuid.UUID
	UserID    uuid.UUID
	CourtID   uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	RefDate   calendar.Date
	Status    BookingStatus
	Note      *string
}

func (o Occupancy) Interval() calendar.Interval {
	return calendar.Interval{Start: o.StartTime, End: o.EndTime}
}
