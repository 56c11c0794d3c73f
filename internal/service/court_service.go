package service

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/apperr"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/longtrq26/court-booking-system/internal/pricing"
	"github.com/rs/zerolog"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// CourtManager implements CourtService
type CourtManager struct {
	store    CourtStore
	schedule *ScheduleBuilder
	log      zerolog.Logger
}

// NewCourtManager creates a new CourtManager
func NewCourtManager(store CourtStore, schedule *ScheduleBuilder, log zerolog.Logger) *CourtManager {
	return &CourtManager{
		store:    store,
		schedule: schedule,
		log:      log.With().Str("component", "court").Logger(),
	}
}

func (m *CourtManager) CreateCourt(ctx context.Context, req *models.CreateCourtRequest) (*models.Court, error) {
	court := &models.Court{
		Name:        strings.TrimSpace(req.Name),
		Location:    strings.TrimSpace(req.Location),
		Description: req.Description,
		Type:        req.Type,
		IsActive:    true,
	}
	if req.IsActive != nil {
		court.IsActive = *req.IsActive
	}
	if err := validateCourt(court); err != nil {
		return nil, err
	}

	prices, err := buildRules(req.Prices)
	if err != nil {
		return nil, err
	}
	court.Prices = prices

	if err := m.store.CreateCourt(ctx, court); err != nil {
		return nil, err
	}

	m.log.Info().Str("courtId", court.ID.String()).Str("name", court.Name).Int("rules", len(court.Prices)).
		Msg("court created")
	return court, nil
}

func (m *CourtManager) GetCourt(ctx context.Context, id uuid.UUID) (*models.Court, error) {
	return m.store.GetCourt(ctx, id)
}

func (m *CourtManager) ListCourts(ctx context.Context, q models.CourtQuery) (*models.CourtPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	// keep (Page-1)*Limit from overflowing into a negative offset
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.Type != nil && !q.Type.Valid() {
		return nil, apperr.Validation("invalid court type %q", *q.Type)
	}

	courts, total, err := m.store.ListCourts(ctx, q)
	if err != nil {
		return nil, err
	}
	if courts == nil {
		courts = []models.Court{}
	}

	return &models.CourtPage{
		Data:       courts,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}, nil
}

// UpdateCourt applies the provided fields. A provided price list replaces all rules.
func (m *CourtManager) UpdateCourt(ctx context.Context, id uuid.UUID, req *models.UpdateCourtRequest) (*models.Court, error) {
	court, err := m.store.GetCourt(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		court.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		court.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		court.Description = req.Description
	}
	if req.Type != nil {
		court.Type = *req.Type
	}
	if req.IsActive != nil {
		court.IsActive = *req.IsActive
	}
	if err := validateCourt(court); err != nil {
		return nil, err
	}

	replace := req.Prices != nil
	if replace {
		prices, err := buildRules(*req.Prices)
		if err != nil {
			return nil, err
		}
		court.Prices = prices
	}

	if err := m.store.UpdateCourt(ctx, court, replace); err != nil {
		return nil, err
	}

	m.log.Info().Str("courtId", id.String()).Bool("pricesReplaced", replace).Msg("court updated")
	return court, nil
}

func (m *CourtManager) DeleteCourt(ctx context.Context, id uuid.UUID) error {
	if err := m.store.DeleteCourt(ctx, id); err != nil {
		return err
	}
	m.log.Info().Str("courtId", id.String()).Msg("court deleted")
	return nil
}

func (m *CourtManager) GetSchedule(ctx context.Context, courtID uuid.UUID, q models.ScheduleQuery) (*models.CourtSchedule, error) {
	return m.schedule.Build(ctx, courtID, q)
}

func validateCourt(c *models.Court) error {
	if c.Name == "" {
		return apperr.Validation("court name is required")
	}
	if c.Location == "" {
		return apperr.Validation("court location is required")
	}
	if !c.Type.Valid() {
		return apperr.Validation("invalid court type %q", c.Type)
	}
	return nil
}

func buildRules(inputs []models.PriceRuleInput) ([]models.PriceRule, error) {
	rules := make([]models.PriceRule, 0, len(inputs))
	for _, in := range inputs {
		if err := pricing.ValidateRule(in); err != nil {
			return nil, err
		}
		rules = append(rules, models.PriceRule{
			ID:           uuid.New(),
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			DaysOfWeek:   in.DaysOfWeek,
			PricePerHour: in.Price,
			Priority:     in.Priority,
			Note:         in.Note,
		})
	}
	return rules, nil
}
