package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/longtrq26/court-booking-system/internal/config"
	"github.com/longtrq26/court-booking-system/internal/database"
	"github.com/longtrq26/court-booking-system/internal/handlers"
	"github.com/longtrq26/court-booking-system/internal/logger"
	"github.com/longtrq26/court-booking-system/internal/middleware"
	"github.com/longtrq26/court-booking-system/internal/notify"
	"github.com/longtrq26/court-booking-system/internal/obs"
	"github.com/longtrq26/court-booking-system/internal/payment"
	"github.com/longtrq26/court-booking-system/internal/redis"
	"github.com/longtrq26/court-booking-system/internal/router"
	"github.com/longtrq26/court-booking-system/internal/service"
	"github.com/longtrq26/court-booking-system/internal/websocket"
	"github.com/longtrq26/court-booking-system/internal/workflows"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
)

type store interface {
	service.CourtStore
	service.BookingStore
	service.PaymentStore
	service.UserDirectory
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", true)
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", "api-server").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, "court-booking-api", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer shutdownTracer(context.Background())

	loc, _ := cfg.Location()
	scheduleCfg, _ := cfg.Schedule()

	// Storage
	db, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	// Payment gateway
	var gateway service.PaymentGateway
	if cfg.StripeSecretKey != "" {
		g, err := payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Currency:      cfg.Currency,
			ClientURL:     cfg.ClientURL,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create payment gateway")
		}
		gateway = g
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, bookings will be created without payment links")
	}

	// Notifications
	notifier, closeNotifier := notify.Open(cfg.NotifyOptions(), log)
	defer closeNotifier()

	// Webhook dedupe
	var deduper service.WebhookDeduper = redis.NewLocalDeduper(redis.DefaultDedupeTTL)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		deduper = redis.NewDeduper(rdb, redis.DefaultDedupeTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	}

	// Payment hold timers
	var holds service.HoldScheduler
	if cfg.TemporalHost != "" {
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalHost,
			Namespace: cfg.TemporalNamespace,
			Logger:    logger.NewTemporal(log),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Temporal client")
		}
		defer temporalClient.Close()
		holds = workflows.NewTemporalHoldScheduler(temporalClient, cfg.TemporalTaskQueue, cfg.PaymentHold)
		log.Info().Str("host", cfg.TemporalHost).Msg("Connected to Temporal server")
	} else {
		log.Warn().Msg("TEMPORAL_HOST not set, unpaid bookings will not expire automatically")
	}

	// Live schedule updates
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	// Services
	bookings := service.NewBookingCoordinator(service.BookingDeps{
		Courts:   db,
		Store:    db,
		Payments: db,
		Users:    db,
		Gateway:  gateway,
		Notifier: notifier,
		Holds:    holds,
		Slots:    hub,
	}, service.BookingConfig{
		Location:       loc,
		RejectInactive: cfg.RejectInactive,
		CurrencyLabel:  cfg.CurrencyLabel,
	}, log)
	schedule := service.NewScheduleBuilder(db, db, db, scheduleCfg, log)
	courts := service.NewCourtManager(db, schedule, log)
	payments := service.NewPaymentProcessor(db, gateway, bookings, deduper, log)

	h := handlers.NewHandler(bookings, courts, payments, hub, log)
	r := router.SetupRouter(h, router.Options{
		JWTSecret:   cfg.JWTSecret,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log),
		Logger:      log,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("API Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg config.App, log zerolog.Logger) (store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return database.NewMemoryStore(cfg.LockTimeout), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info().Msg("Connected to database")
	return database.NewRepository(pool, cfg.LockTimeout), pool.Close, nil
}
