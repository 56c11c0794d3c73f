// Package calendar holds the civil date, time-of-day and weekday types shared by
// slot generation, pricing and schedule building.
package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Weekday is an upper-case English day name as used on the wire and in price rules.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdays = [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekday accepts a day name in any case.
func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range weekdays {
		if w == known {
			return w, nil
		}
	}
	return "", fmt.Errorf("invalid weekday %q", s)
}

// Valid reports whether w is one of the seven day names.
func (w Weekday) Valid() bool {
	_, err := ParseWeekday(string(w))
	return err == nil
}

// ContainsWeekday reports whether days includes w.
func ContainsWeekday(days []Weekday, w Weekday) bool {
	for _, d := range days {
		if d == w {
			return true
		}
	}
	return false
}

// Date is a calendar day without time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes overflowing components, so NewDate(2026, 1, 32) is 2026-02-01.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// WeekdayOf is the single weekday derivation used across the system.
func WeekdayOf(d Date) Weekday {
	return weekdays[d.midnight().Weekday()]
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Time returns midnight UTC of d, suitable for DATE columns.
func (d Date) Time() time.Time {
	return d.midnight()
}

// At combines d with a time of day in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// AddMonths moves by whole months; day overflow normalizes forward.
func (d Date) AddMonths(n int) Date {
	return NewDate(d.Year, d.Month+time.Month(n), d.Day)
}

func (d Date) Before(o Date) bool { return d.midnight().Before(o.midnight()) }

func (d Date) After(o Date) bool { return d.midnight().After(o.midnight()) }

func (d Date) IsZero() bool { return d == Date{} }

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.midnight().Sub(d.midnight()).Hours() / 24)
}

// DayNumber is the number of days since 1970-01-01.
func (d Date) DayNumber() int32 {
	return int32(d.midnight().Unix() / 86400)
}

func (d Date) String() string {
	return d.midnight().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EachDay calls fn for every day in [from, to]. Nothing is called when to is before from.
func EachDay(from, to Date, fn func(Date)) {
	for d := from; !d.After(to); d = d.AddDays(1) {
		fn(d)
	}
}
