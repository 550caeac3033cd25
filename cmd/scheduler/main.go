package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking_engine/internal/analytics"
	"booking_engine/internal/events"
	"booking_engine/internal/intents"
	"booking_engine/internal/pivot"
	"booking_engine/internal/profiles"
	"booking_engine/internal/profiles/catalog"
	"booking_engine/internal/scheduler"
	"booking_engine/platform/config"
	"booking_engine/platform/db"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
	"booking_engine/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	bookingMetrics := metrics.MustNewBooking()
	eventBus := events.NewInMemoryBus(log)

	if cfg.IsKafkaEnabled() {
		sink, err := analytics.NewKafkaSink(cfg, log)
		if err != nil {
			log.Error("failed to initialize kafka sink", "error", err)
			panic("failed to initialize kafka sink: " + err.Error())
		}
		defer func() { _ = sink.Close() }()
		analytics.Subscribe(eventBus, sink, log)
	}

	// The sweep never reads profiles, but the intents service requires a source.
	baseCatalog, err := profiles.LoadBaseCatalog(cfg)
	if err != nil {
		log.Error("failed to load booking catalog", "error", err)
		panic("failed to load booking catalog: " + err.Error())
	}

	intentsModule := intents.NewModule(
		pool,
		catalog.NewStore(baseCatalog),
		pivot.New(log, bookingMetrics),
		eventBus,
		bookingMetrics,
		cfg,
		validator.New(),
		log,
	)

	// Sweeps that find a refreshed intent reschedule themselves.
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()
	intentsModule.Service().SetAbandonScheduler(client)

	worker, err := scheduler.NewWorker(cfg, intentsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
