package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/calendar"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/pricing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultSlotDuration = 60
	MinSlotDuration     = 30
	MaxScheduleDays     = 62
)

// UnpricedPolicy decides how schedule slots without a matching price rule are shown
type UnpricedPolicy string

const (
	// UnpricedShow keeps the slot available with price 0.
	UnpricedShow UnpricedPolicy = "show"
	// UnpricedBlock reports the slot as unavailable.
	UnpricedBlock UnpricedPolicy = "block"
)

// ScheduleConfig holds the operating window and display policy
type ScheduleConfig struct {
	Open     calendar.Clock
	Close    calendar.Clock
	Unpriced UnpricedPolicy
	Location *time.Location
}

// DefaultScheduleConfig is 06:00 to 22:00 in UTC, showing unpriced slots.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Open:     calendar.NewClock(6, 0),
		Close:    calendar.NewClock(22, 0),
		Unpriced: UnpricedShow,
		Location: time.UTC,
	}
}

// ScheduleBuilder computes fixed-width availability views of a court
type ScheduleBuilder struct {
	courts    CourtCatalog
	occupancy OccupancyReader
	users     UserDirectory
	cfg       ScheduleConfig
	log       zerolog.Logger
	tracer    trace.Tracer
}

// NewScheduleBuilder creates a new ScheduleBuilder. users may be nil.
func NewScheduleBuilder(courts CourtCatalog, occupancy OccupancyReader, users UserDirectory, cfg ScheduleConfig, log zerolog.Logger) *ScheduleBuilder {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Unpriced == "" {
		cfg.Unpriced = UnpricedShow
	}
	return &ScheduleBuilder{
		courts:    courts,
		occupancy: occupancy,
		users:     users,
		cfg:       cfg,
		log:       log.With().Str("component", "schedule").Logger(),
		tracer:    otel.Tracer(tracerName),
	}
}

// Build returns the court's schedule for the query's date range
func (b *ScheduleBuilder) Build(ctx context.Context, courtID uuid.UUID, q models.ScheduleQuery) (result *models.CourtSchedule, err error) {
	ctx, span := b.tracer.Start(ctx, "ScheduleBuilder.Build", trace.WithAttributes(
		attribute.String("court.id", courtID.String()),
	))
	defer func() { endSpan(span, err) }()

	from, to, duration, err := resolveScheduleRange(q)
	if err != nil {
		return nil, err
	}

	court, err := b.courts.GetCourt(ctx, courtID)
	if err != nil {
		return nil, err
	}

	occupied, err := b.occupancy.ListOccupancy(ctx, courtID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[calendar.Date][]models.Occupancy)
	for _, o := range occupied {
		byDay[o.RefDate] = append(byDay[o.RefDate], o)
	}

	names := newNameCache(b.users)
	result = &models.CourtSchedule{
		CourtID:      court.ID,
		CourtName:    court.Name,
		StartDate:    from,
		EndDate:      to,
		SlotDuration: duration,
	}

	calendar.EachDay(from, to, func(day calendar.Date) {
		ds := b.buildDay(ctx, court, day, duration, byDay[day], names)
		result.Schedule = append(result.Schedule, ds)
		result.TotalSlots += len(ds.Slots)
		result.TotalAvailableSlots += ds.AvailableSlots
		result.TotalBookedSlots += ds.BookedSlots
	})

	span.SetAttributes(attribute.Int("schedule.slots", result.TotalSlots))
	return result, nil
}

func (b *ScheduleBuilder) buildDay(ctx context.Context, court *models.Court, day calendar.Date, duration int, occupied []models.Occupancy, names *nameCache) models.DaySchedule {
	weekday := calendar.WeekdayOf(day)
	ds := models.DaySchedule{
		Date:      day,
		DayOfWeek: weekday,
		Slots:     []models.TimeSlot{},
	}

	for cur := b.cfg.Open; cur.Add(duration) <= b.cfg.Close; cur = cur.Add(duration) {
		end := cur.Add(duration)
		span := calendar.Interval{Start: day.At(cur, b.cfg.Location), End: day.At(end, b.cfg.Location)}
		slot := models.TimeSlot{StartTime: cur, EndTime: end, IsAvailable: true}

		for _, o := range occupied {
			if o.Interval().Overlaps(span) {
				bookingID := o.BookingID
				slot.IsAvailable = false
				slot.BookingID = &bookingID
				slot.BookedBy = names.lookup(ctx, o.UserID)
				slot.Note = o.Note
				break
			}
		}

		if price, err := pricing.Resolve(court.Prices, weekday, cur, end); err == nil {
			slot.Price = price
			slot.Priced = true
		} else if b.cfg.Unpriced == UnpricedBlock {
			slot.IsAvailable = false
		}

		switch {
		case slot.BookingID != nil:
			ds.BookedSlots++
		case slot.IsAvailable:
			ds.AvailableSlots++
		}
		ds.Slots = append(ds.Slots, slot)
	}

	return ds
}

// resolveScheduleRange applies view-type defaults and bounds.
func resolveScheduleRange(q models.ScheduleQuery) (from, to calendar.Date, duration int, err error) {
	if q.StartDate.IsZero() {
		return from, to, 0, apperr.Validation("startDate is required")
	}
	from = q.StartDate

	switch {
	case q.EndDate != nil:
		to = *q.EndDate
	case q.ViewType == models.ScheduleViewDaily:
		to = from
	case q.ViewType == models.ScheduleViewMonthly:
		to = from.AddMonths(1).AddDays(-1)
	case q.ViewType == "" || q.ViewType == models.ScheduleViewWeekly:
		to = from.AddDays(6)
	default:
		return from, to, 0, apperr.Validation("invalid viewType %q", q.ViewType)
	}

	if to.Before(from) {
		return from, to, 0, apperr.Validation("endDate %s is before startDate %s", to, from)
	}
	if days := from.DaysUntil(to) + 1; days > MaxScheduleDays {
		return from, to, 0, apperr.Validation("schedule range of %d days exceeds %d", days, MaxScheduleDays)
	}

	duration = q.SlotDuration
	if duration == 0 {
		duration = DefaultSlotDuration
	}
	if duration < MinSlotDuration {
		return from, to, 0, apperr.Validation("slotDuration must be at least %d minutes", MinSlotDuration)
	}
	if duration > calendar.MinutesPerDay {
		return from, to, 0, apperr.Validation("slotDuration must not exceed %d minutes", calendar.MinutesPerDay)
	}
	return from, to, duration, nil
}

// nameCache resolves occupant names once per schedule build
type nameCache struct {
	users UserDirectory
	names map[uuid.UUID]string
}

func newNameCache(users UserDirectory) *nameCache {
	return &nameCache{users: users, names: make(map[uuid.UUID]string)}
}

func (c *nameCache) lookup(ctx context.Context, id uuid.UUID) string {
	if name, ok := c.names[id]; ok {
		return name
	}
	name := ""
	if c.users != nil {
		if u, err := c.users.GetUser(ctx, id); err == nil {
			name = u.FullName
		}
	}
	c.names[id] = name
	return name
}

// Validate checks that the operating window is usable.
func (c ScheduleConfig) Validate() error {
	if !c.Open.Valid() || !c.Close.Valid() || c.Close <= c.Open {
		return fmt.Errorf("invalid schedule window %s-%s", c.Open, c.Close)
	}
	switch c.Unpriced {
	case UnpricedShow, UnpricedBlock:
		return nil
	}
	return fmt.Errorf("invalid unpriced policy %q", c.Unpriced)
}
