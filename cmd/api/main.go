package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"event_leads_backend/internal/adapters"
	"event_leads_backend/internal/adapters/storage"
	"event_leads_backend/internal/email"
	"event_leads_backend/internal/events"
	apphttp "event_leads_backend/internal/http"
	"event_leads_backend/internal/http/router"
	"event_leads_backend/internal/leads"
	"event_leads_backend/internal/notification"
	"event_leads_backend/internal/photobooth"
	"event_leads_backend/internal/photobooth/imagegen"
	"event_leads_backend/internal/rewards"
	"event_leads_backend/internal/rewards/catalog"
	"event_leads_backend/platform/config"
	"event_leads_backend/platform/db"
	"event_leads_backend/platform/logger"
	"event_leads_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Prize catalog, loaded once and shared read-only
	rewardsCatalog, err := catalog.Load(cfg.GetRewardsCatalogPath())
	if err != nil {
		log.Error("failed to load rewards catalog", "error", err, "path", cfg.GetRewardsCatalogPath())
		panic("failed to load rewards catalog: " + err.Error())
	}
	log.Info("rewards catalog loaded",
		"roulettePrizes", len(rewardsCatalog.Roulette.Prizes),
		"surveyPrizes", len(rewardsCatalog.Survey.Prizes),
	)

	// Storage service for generated photo variants (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure ai-photos bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketAIPhotos())
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketAIPhotos())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "aiPhotosBucket", cfg.GetMinioBucketAIPhotos())

	// Gemini image renderer
	if !cfg.IsGenAIEnabled() {
		log.Error("GEMINI_API_KEY not configured")
		panic("GEMINI_API_KEY not configured")
	}
	renderer, err := imagegen.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize image renderer", "error", err)
		panic("failed to initialize image renderer: " + err.Error())
	}

	// Redis is optional: without it the template cache reads through to
	// the database and the stale-generation reaper does not run.
	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, cfg, val, log)

	rewardsDirectory := adapters.NewRewardsLeadDirectory(leadsModule.Service())
	rewardsModule := rewards.NewModule(pool, rewardsDirectory, rewardsCatalog, eventBus, val, log)

	photoboothModule := photobooth.NewModule(
		pool,
		rdb,
		adapters.NewPhotoboothLeadDirectory(leadsModule.Service()),
		renderer,
		adapters.NewPhotoboothVariantStore(storageSvc, cfg.GetMinioBucketAIPhotos()),
		eventBus,
		cfg,
		val,
		log,
	)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(
		email.NewSMTPSender(cfg),
		adapters.NewNotificationConsentReader(leadsModule.Service()),
		cfg.GetEmailEnabled(),
		log,
	)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			rewardsModule,
			photoboothModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; template cache and stale reaper disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL, continuing without redis", "error", err)
		return nil
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	return redis.NewClient(opt)
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
