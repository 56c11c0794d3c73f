package service

import (
	"time"

	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
)

// Slot is one candidate reservation produced from a request
type Slot struct {
	Start   time.Time
	End     time.Time
	RefDate calendar.Date
}

func (s Slot) Interval() calendar.Interval {
	return calendar.Interval{Start: s.Start, End: s.End}
}

// GenerateSlots expands a request into its candidate slots in ascending time
// order. It does not check that the time window is positive; pricing does.
func GenerateSlots(req *models.CreateBookingRequest, loc *time.Location) ([]Slot, error) {
	at := func(day calendar.Date) Slot {
		return Slot{
			Start:   day.At(req.StartTime, loc),
			End:     day.At(req.EndTime, loc),
			RefDate: day,
		}
	}

	switch req.Type {
	case models.BookingTypeSingle:
		if req.Date == nil {
			return nil, apperr.ErrMissingDate
		}
		return []Slot{at(*req.Date)}, nil

	case models.BookingTypeFixed:
		if req.StartDate == nil || req.EndDate == nil || len(req.DaysOfWeek) == 0 {
			return nil, apperr.ErrMissingRange
		}
		var slots []Slot
		calendar.EachDay(*req.StartDate, *req.EndDate, func(day calendar.Date) {
			if calendar.ContainsWeekday(req.DaysOfWeek, calendar.WeekdayOf(day)) {
				slots = append(slots, at(day))
			}
		})
		return slots, nil
	}

	return nil, apperr.Validation("unsupported booking type %q", req.Type)
}
