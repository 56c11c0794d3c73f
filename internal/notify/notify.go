// Package notify delivers booking notifications to administrators and customers
// over the configured channels.
package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
	"github.com/rs/zerolog"
)

const (
	AudienceAdmins = "admins"
	AudienceUser   = "user"
)

// Sink delivers a notification to one channel
type Sink interface {
	NotifyAdmins(ctx context.Context, n models.Notification) error
	NotifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) error
}

// Envelope is the message published on the event bus
type Envelope struct {
	Audience     string              `json:"audience"`
	UserID       *uuid.UUID          `json:"userId,omitempty"`
	Notification models.Notification `json:"notification"`
}

// RoutingKey returns e.g. "notification.admins.booking_created"
func (e Envelope) RoutingKey() string {
	return "notification." + e.Audience + "." + strings.ToLower(string(e.Notification.Type))
}

func adminEnvelope(n models.Notification) Envelope {
	return Envelope{Audience: AudienceAdmins, Notification: n}
}

func userEnvelope(userID uuid.UUID, n models.Notification) Envelope {
	return Envelope{Audience: AudienceUser, UserID: &userID, Notification: n}
}

// Multi fans a notification out to every sink. Every sink is tried and the
// failures are joined.
type Multi []Sink

func (m Multi) NotifyAdmins(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.NotifyAdmins(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.NotifyUser(ctx, userID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes notifications to the structured log
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "notify").Logger()}
}

func (s *LogSink) NotifyAdmins(ctx context.Context, n models.Notification) error {
	s.event(n).Str("audience", AudienceAdmins).Msg(n.Message)
	return nil
}

func (s *LogSink) NotifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) error {
	s.event(n).Str("audience", AudienceUser).Str("userId", userID.String()).Msg(n.Message)
	return nil
}

func (s *LogSink) event(n models.Notification) *zerolog.Event {
	ev := s.log.Info().Str("type", string(n.Type)).Str("title", n.Title)
	if n.BookingID != nil {
		ev = ev.Str("bookingId", n.BookingID.String())
	}
	return ev
}
