package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/calendar"
)

type CourtType string

const (
	CourtTypeBadminton  CourtType = "BADMINTON"
	CourtTypeFootball   CourtType = "FOOTBALL"
	CourtTypeTennis     CourtType = "TENNIS"
	CourtTypePickleball CourtType = "PICKLEBALL"
)

// Valid reports whether t is a known court category.
func (t CourtType) Valid() bool {
	switch t {
	case CourtTypeBadminton, CourtTypeFootball, CourtTypeTennis, CourtTypePickleball:
		return true
	}
	return false
}

// Court is the aggregate root for its price rules
type Court struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Description *string     `json:"description,omitempty"`
	Type        CourtType   `json:"type"`
	IsActive    bool        `json:"isActive"`
	Prices      []PriceRule `json:"prices"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	DeletedAt   *time.Time  `json:"-"`
}

// PriceRule prices a time-of-day window on a set of weekdays
type PriceRule struct {
	ID           uuid.UUID          `json:"id"`
	CourtID      uuid.UUID          `json:"courtId"`
	StartTime    calendar.Clock     `json:"startTime"`
	EndTime      calendar.Clock     `json:"endTime"`
	DaysOfWeek   []calendar.Weekday `json:"daysOfWeek"`
	PricePerHour float64            `json:"price"`
	Priority     int                `json:"priority"`
	Note         *string            `json:"note,omitempty"`
}

// PriceRuleInput is a rule as submitted by an administrator
type PriceRuleInput struct {
	StartTime  calendar.Clock     `json:"startTime"`
	EndTime    calendar.Clock     `json:"endTime"`
	DaysOfWeek []calendar.Weekday `json:"daysOfWeek"`
	Price      float64            `json:"price"`
	Priority   int                `json:"priority"`
	Note       *string            `json:"note,omitempty"`
}

// CreateCourtRequest represents a request to create a court with its price rules
type CreateCourtRequest struct {
	Name        string           `json:"name"`
	Location    string           `json:"location"`
	Description *string          `json:"description,omitempty"`
	Type        CourtType        `json:"type"`
	IsActive    *bool            `json:"isActive,omitempty"`
	Prices      []PriceRuleInput `json:"prices"`
}

// UpdateCourtRequest carries optional fields; a non-nil Prices replaces the rule set
type UpdateCourtRequest struct {
	Name        *string           `json:"name,omitempty"`
	Location    *string           `json:"location,omitempty"`
	Description *string           `json:"description,omitempty"`
	Type        *CourtType        `json:"type,omitempty"`
	IsActive    *bool             `json:"isActive,omitempty"`
	Prices      *[]PriceRuleInput `json:"prices,omitempty"`
}

// CourtQuery filters the court listing. Only active, non-deleted courts are listed.
type CourtQuery struct {
	Page   int
	Limit  int
	Search string
	Type   *CourtType
}

// CourtPage is one page of the court listing
type CourtPage struct {
	Data       []Court `json:"data"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}
