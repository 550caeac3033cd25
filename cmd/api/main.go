package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking_engine/internal/adapters"
	"booking_engine/internal/adapters/storage"
	"booking_engine/internal/analytics"
	"booking_engine/internal/bookingsession"
	sessionclient "booking_engine/internal/bookingsession/client"
	sessionrepo "booking_engine/internal/bookingsession/repository"
	"booking_engine/internal/bookingsession/session"
	"booking_engine/internal/email"
	"booking_engine/internal/events"
	apphttp "booking_engine/internal/http"
	"booking_engine/internal/http/router"
	"booking_engine/internal/intents"
	"booking_engine/internal/notification"
	"booking_engine/internal/pivot"
	"booking_engine/internal/profiles"
	"booking_engine/internal/profiles/catalog"
	profilesvc "booking_engine/internal/profiles/service"
	"booking_engine/internal/scheduler"
	"booking_engine/migrations"
	"booking_engine/platform/config"
	"booking_engine/platform/db"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
	"booking_engine/platform/redisclient"
	"booking_engine/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, log)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	bookingMetrics, err := metrics.NewBooking()
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		panic("failed to register metrics: " + err.Error())
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	health := []apphttp.HealthChecker{db.NewPoolAdapter(pool)}

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		health = append(health, redisclient.Checker{Client: redisClient})
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	baseCatalog, err := profiles.LoadBaseCatalog(cfg)
	if err != nil {
		log.Error("failed to load booking catalog", "error", err, "file", cfg.GetCatalogFile())
		panic("failed to load booking catalog: " + err.Error())
	}
	if report := profiles.ValidateCatalog(baseCatalog); !report.Valid {
		log.Error("booking catalog is invalid", "profiles", report.InvalidKeys(), "errors", report.Errors)
		panic("booking catalog is invalid")
	}
	catalogStore := catalog.NewStore(baseCatalog)

	profilesModule := profiles.NewModule(pool, baseCatalog, catalogStore, profilesvc.DefaultPolicy(), eventBus, val, log)
	if archiver := initArchiver(ctx, cfg, log); archiver != nil {
		profilesModule.Service().SetArchiver(archiver)
	}
	if err := profilesModule.Reload(ctx); err != nil {
		log.Error("failed to apply stored booking profiles", "error", err)
		panic("failed to apply stored booking profiles: " + err.Error())
	}

	intentsModule := intents.NewModule(pool, catalogStore, pivot.New(log, bookingMetrics), eventBus, bookingMetrics, cfg, val, log)
	if sweepScheduler := initAbandonScheduler(cfg, log); sweepScheduler != nil {
		defer func() { _ = sweepScheduler.Close() }()
		intentsModule.Service().SetAbandonScheduler(sweepScheduler)
	}

	var sessionStore session.Store = session.NewMemoryStore()
	if redisClient != nil {
		sessionStore = sessionrepo.NewRedisStore(redisClient, cfg.GetSessionTTL(), cfg.GetSessionLockTTL())
	}

	var bookingAPI session.BookingAPI = adapters.NewIntentsBookingAPI(intentsModule.Service())
	if url := cfg.GetBookingAPIURL(); url != "" {
		bookingAPI = sessionclient.New(url, cfg.GetUpstreamTimeout(), log)
		log.Info("booking sessions use remote intent api", "url", url)
	}
	sessionModule := bookingsession.NewModule(bookingAPI, sessionStore, bookingMetrics, val, log)
	sessionModule.Machine().SetAbandonTimeout(cfg.GetUpstreamTimeout())
	defer sessionModule.Machine().Wait()

	// Notification module subscribes to domain events (not HTTP-facing)
	var sender email.Sender = email.NoopSender{}
	if cfg.IsSMTPEnabled() {
		sender = email.NewSMTPSender(cfg)
	} else {
		log.Warn("SMTP not configured; lead notification emails disabled")
	}
	notification.New(sender, cfg, log).RegisterHandlers(eventBus)

	sink := initAnalyticsSink(cfg, log)
	defer func() { _ = sink.Close() }()
	analytics.Subscribe(eventBus, sink, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			profilesModule,
			intentsModule,
			sessionModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; booking sessions are kept in memory")
		return nil
	}

	var client *redis.Client
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := redisclient.New(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis connection established")
	return client
}

func initAbandonScheduler(cfg config.SchedulerConfig, log *logger.Logger) *scheduler.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; abandon sweep disabled")
		return nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize abandon sweep scheduler", "error", err)
		return nil
	}
	return client
}

// initArchiver returns nil when object storage is not configured, so the
// profiles service never holds a typed nil archiver.
func initArchiver(ctx context.Context, cfg *config.Config, log *logger.Logger) profilesvc.Archiver {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; catalog snapshots disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketCatalogSnapshots()
	if err := withRetry(ctx, log, "ensure catalog snapshot bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "catalogSnapshotsBucket", bucket)

	return adapters.NewCatalogSnapshotArchiver(storageSvc, bucket)
}

func initAnalyticsSink(cfg *config.Config, log *logger.Logger) analytics.Sink {
	if !cfg.IsKafkaEnabled() {
		log.Warn("KAFKA_BROKERS not configured; analytics events are logged only")
		return analytics.NewLogSink(log)
	}

	sink, err := analytics.NewKafkaSink(cfg, log)
	if err != nil {
		log.Error("failed to initialize kafka sink; falling back to log sink", "error", err)
		return analytics.NewLogSink(log)
	}
	log.Info("analytics events published to kafka", "topic", cfg.GetKafkaAnalyticsTopic())
	return sink
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
