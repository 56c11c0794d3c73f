package models

import (
	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/calendar"
)

type ScheduleViewType string

const (
	ScheduleViewDaily   ScheduleViewType = "DAILY"
	ScheduleViewWeekly  ScheduleViewType = "WEEKLY"
	ScheduleViewMonthly ScheduleViewType = "MONTHLY"
)

// ScheduleQuery selects the date range and slot width of a schedule view
type ScheduleQuery struct {
	StartDate    calendar.Date
	EndDate      *calendar.Date
	ViewType     ScheduleViewType
	SlotDuration int
}

// TimeSlot is one fixed-width cell of the schedule
type TimeSlot struct {
	StartTime   calendar.Clock `json:"startTime"`
	EndTime     calendar.Clock `json:"endTime"`
	IsAvailable bool           `json:"isAvailable"`
	Price       float64        `json:"price"`
	Priced      bool           `json:"priced"`
	BookingID   *uuid.UUID     `json:"bookingId,omitempty"`
	BookedBy    string         `json:"bookedBy,omitempty"`
	Note        *string        `json:"note,omitempty"`
}

// DaySchedule is the slot list of one calendar day
type DaySchedule struct {
	Date           calendar.Date    `json:"date"`
	DayOfWeek      calendar.Weekday `json:"dayOfWeek"`
	Slots          []TimeSlot       `json:"slots"`
	AvailableSlots int              `json:"availableSlots"`
	BookedSlots    int              `json:"bookedSlots"`
}

// CourtSchedule is the availability of a court over a date range
type CourtSchedule struct {
	CourtID             uuid.UUID     `json:"courtId"`
	CourtName           string        `json:"courtName"`
	StartDate           calendar.Date `json:"startDate"`
	EndDate             calendar.Date `json:"endDate"`
	SlotDuration        int           `json:"slotDuration"`
	Schedule            []DaySchedule `json:"schedule"`
	TotalSlots          int           `json:"totalSlots"`
	TotalAvailableSlots int           `json:"totalAvailableSlots"`
	TotalBookedSlots    int           `json:"totalBookedSlots"`
}
