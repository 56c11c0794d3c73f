// Package pricing resolves the price of a time window on a court from its rules.
package pricing

import (
	"fmt"
	"math"

	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
)

// Match returns the authoritative rule for the window: among rules covering
// [start, end) on weekday, the highest priority wins and ties go to the
// earliest-starting rule.
func Match(rules []models.PriceRule, weekday calendar.Weekday, start, end calendar.Clock) (*models.PriceRule, error) {
	if end <= start {
		return nil, fmt.Errorf("%w (%s-%s)", apperr.ErrNonPositiveDuration, start, end)
	}

	var best *models.PriceRule
	for i := range rules {
		r := &rules[i]
		if !calendar.ContainsWeekday(r.DaysOfWeek, weekday) {
			continue
		}
		if r.StartTime > start || end > r.EndTime {
			continue
		}
		if best == nil || r.Priority > best.Priority ||
			(r.Priority == best.Priority && r.StartTime < best.StartTime) {
			best = r
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w for %s %s-%s", apperr.ErrNoMatchingRule, weekday, start, end)
	}
	return best, nil
}

// Resolve prices the window as the matched rule's hourly rate times the
// fractional hours, rounded to cents.
func Resolve(rules []models.PriceRule, weekday calendar.Weekday, start, end calendar.Clock) (float64, error) {
	rule, err := Match(rules, weekday, start, end)
	if err != nil {
		return 0, err
	}
	hours := float64(end-start) / 60
	return math.Round(rule.PricePerHour*hours*100) / 100, nil
}

// ValidateRule checks a submitted rule before it is attached to a court.
func ValidateRule(in models.PriceRuleInput) error {
	if !in.StartTime.Valid() || !in.EndTime.Valid() {
		return apperr.Validation("price rule time out of range")
	}
	if in.EndTime <= in.StartTime {
		return apperr.Validation("price rule %s-%s: end time must be after start time", in.StartTime, in.EndTime)
	}
	if len(in.DaysOfWeek) == 0 {
		return apperr.Validation("price rule %s-%s: at least one weekday is required", in.StartTime, in.EndTime)
	}
	for _, d := range in.DaysOfWeek {
		if !d.Valid() {
			return apperr.Validation("price rule %s-%s: invalid weekday %q", in.StartTime, in.EndTime, d)
		}
	}
	if in.Price < 0 {
		return apperr.Validation("price rule %s-%s: price must not be negative", in.StartTime, in.EndTime)
	}
	if in.Priority < 0 {
		return apperr.Validation("price rule %s-%s: priority must not be negative", in.StartTime, in.EndTime)
	}
	return nil
}
