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

	"realty_pipeline_backend/internal/adapters/storage"
	"realty_pipeline_backend/internal/events"
	apphttp "realty_pipeline_backend/internal/http"
	"realty_pipeline_backend/internal/http/router"
	"realty_pipeline_backend/internal/leads"
	"realty_pipeline_backend/internal/leads/snapshot"
	"realty_pipeline_backend/internal/scheduler"
	"realty_pipeline_backend/migrations"
	"realty_pipeline_backend/platform/config"
	"realty_pipeline_backend/platform/db"
	"realty_pipeline_backend/platform/logger"
	"realty_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
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
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule, err := leads.NewModule(pool, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	closeSnapshots := initSnapshots(ctx, cfg, log, leadsModule)
	defer closeSnapshots()

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
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSnapshots wires the cached report endpoints when Redis is configured,
// with MinIO archiving and scheduler-backed refreshes when those are too.
func initSnapshots(ctx context.Context, cfg *config.Config, log *logger.Logger, leadsModule *leads.Module) func() {
	if !cfg.IsSnapshotEnabled() {
		log.Warn("REDIS_URL not configured; pipeline snapshots disabled")
		return func() {}
	}

	redisClient, err := snapshot.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize snapshot store", "error", err)
		return func() {}
	}

	var archiver *snapshot.Archiver
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		bucket := cfg.GetMinioBucketReportArchive()
		if err := withRetry(ctx, log, "ensure report archive bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		archiver = snapshot.NewArchiver(storageSvc, bucket)
		log.Info("storage service initialized", "reportArchiveBucket", bucket)
	}

	store := snapshot.NewStore(redisClient, cfg.GetSnapshotTTL())
	// A nil *Archiver must not become a non-nil interface value.
	if archiver != nil {
		leadsModule.EnableSnapshots(store, archiver)
	} else {
		leadsModule.EnableSnapshots(store, nil)
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize snapshot scheduler client", "error", err)
		return func() { _ = redisClient.Close() }
	}
	leadsModule.SetSnapshotEnqueuer(client)

	return func() {
		_ = client.Close()
		_ = redisClient.Close()
	}
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
