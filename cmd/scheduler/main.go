// Command scheduler runs the recurring jobs the worker pool doesn't drive
// off the task queue: the daily metrics snapshot (METRICS_SNAPSHOT_CRON).
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/shopsignal/platform/internal/adapters/postgres"
	"github.com/shopsignal/platform/internal/platform/config"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/platform/system"
	"github.com/shopsignal/platform/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.NewFromEnv("scheduler")

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	pages := postgres.NewPageStore(db)
	pageMetrics := postgres.NewPageDailyMetricsStore(db)

	snapshotMetrics := usecase.NewSnapshotMetrics(pages, pageMetrics, system.UUIDGenerator{}, system.RealClock{}, logger)

	c := cron.New()
	if _, err := c.AddFunc(cfg.MetricsSnapshotCron, func() {
		runCtx := logging.WithTraceID(ctx, logging.NewTraceID())
		summary, err := snapshotMetrics.Run(runCtx)
		if err != nil {
			logger.Error(runCtx, "metrics snapshot job failed", err, nil)
			return
		}
		logger.Info(runCtx, "metrics snapshot job completed", map[string]any{
			"pages_processed":   summary.PagesProcessed,
			"snapshots_written": summary.SnapshotsWritten,
			"errors_count":      summary.ErrorsCount,
		})
	}); err != nil {
		log.Fatalf("invalid METRICS_SNAPSHOT_CRON %q: %v", cfg.MetricsSnapshotCron, err)
	}

	c.Start()
	logger.Info(ctx, "scheduler started", map[string]any{"metrics_snapshot_cron": cfg.MetricsSnapshotCron})

	<-ctx.Done()
	logger.Info(ctx, "scheduler shutting down", nil)

	stopCtx := c.Stop()
	<-stopCtx.Done()

	os.Exit(0)
}
