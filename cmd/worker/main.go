package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/longtrq26/court-booking-system/internal/activities"
	"github.com/longtrq26/court-booking-system/internal/config"
	"github.com/longtrq26/court-booking-system/internal/database"
	"github.com/longtrq26/court-booking-system/internal/logger"
	"github.com/longtrq26/court-booking-system/internal/notify"
	"github.com/longtrq26/court-booking-system/internal/service"
	"github.com/longtrq26/court-booking-system/internal/workflows"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", true)
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", "worker").Logger()

	if cfg.TemporalHost == "" {
		cfg.TemporalHost = client.DefaultHostPort
	}
	loc, _ := cfg.Location()

	// Connect to database
	log.Info().Msg("Connecting to database...")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	repo := database.NewRepository(pool, cfg.LockTimeout)

	notifier, closeNotifier := notify.Open(cfg.NotifyOptions(), log)
	defer closeNotifier()

	// Expiry releases slots and tells the customer. Live updates stay with the API server.
	bookings := service.NewBookingCoordinator(service.BookingDeps{
		Courts:   repo,
		Store:    repo,
		Payments: repo,
		Users:    repo,
		Notifier: notifier,
	}, service.BookingConfig{
		Location:       loc,
		RejectInactive: cfg.RejectInactive,
		CurrencyLabel:  cfg.CurrencyLabel,
	}, log)

	// Connect to Temporal
	log.Info().Str("host", cfg.TemporalHost).Msg("Connecting to Temporal...")
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHost,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger.NewTemporal(log),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Temporal")
	}
	defer c.Close()
	log.Info().Msg("Connected to Temporal")

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.PaymentHoldWorkflow)

	acts := activities.New(bookings)
	w.RegisterActivityWithOptions(acts.ExpireUnpaidBooking, activity.RegisterOptions{Name: workflows.ExpireActivityName})

	log.Info().Str("taskQueue", cfg.TemporalTaskQueue).Msg("Starting Temporal worker...")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal().Err(err).Msg("Worker failed")
	}
}
