// Command worker drains the Redis task queue and executes the background
// analysis pipeline (§4.3-4.9, § "Queue protocol"): deep page analysis,
// site analysis, catalog sizing, shop scoring, creative analysis, and
// metrics snapshotting.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/shopsignal/platform/internal/adapters/adslibrary"
	"github.com/shopsignal/platform/internal/adapters/postgres"
	"github.com/shopsignal/platform/internal/adapters/scraper"
	"github.com/shopsignal/platform/internal/adapters/sitemap"
	"github.com/shopsignal/platform/internal/adapters/taskqueue"
	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/config"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/platform/system"
	"github.com/shopsignal/platform/internal/ports"
	"github.com/shopsignal/platform/internal/usecase"

	goredis "github.com/go-redis/redis/v8"
)

// reaperInterval controls how often the worker scans in-flight task lists
// for entries that outlived the queue's visibility timeout.
const reaperInterval = 1 * time.Minute

// payloadString reads a string field out of a task's loosely-typed payload,
// tolerating the map[string]any shape JSON decoding produces.
func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.NewFromEnv("worker")

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	redisOpts, err := goredis.ParseURL(cfg.TaskBrokerURL)
	if err != nil {
		log.Fatalf("invalid TASK_BROKER_URL: %v", err)
	}
	rdb := goredis.NewClient(redisOpts)
	defer rdb.Close()

	pages := postgres.NewPageStore(db)
	adsRepo := postgres.NewAdStore(db)
	scans := postgres.NewScanStore(db)
	alerts := postgres.NewAlertStore(db)
	profiles := postgres.NewCommerceProfileStore(db)
	creatives := postgres.NewCreativeAnalysisStore(db)
	shopScores := postgres.NewShopScoreStore(db)
	pageMetrics := postgres.NewPageDailyMetricsStore(db)

	queue := taskqueue.New(rdb, taskqueue.Config{VisibilityTimeout: cfg.WorkerPollInterval * 150})

	adsLibrary, err := adslibrary.New(adslibrary.Config{
		BaseURL:     cfg.AdsLibraryBaseURL,
		AccessToken: cfg.AdsLibraryToken,
		APIVersion:  cfg.AdsLibraryAPIVersion,
		UserAgent:   cfg.HTTPUserAgent,
		Timeout:     cfg.Timeouts.AdsLibrary,
	}, logger)
	if err != nil {
		log.Fatalf("failed to build ads-library client: %v", err)
	}

	htmlFetcher, err := scraper.New(scraper.Config{
		UserAgent:      cfg.HTTPUserAgent,
		FetchTimeout:   cfg.Timeouts.HTML,
		HeadersTimeout: cfg.Timeouts.HeadersOnly,
	})
	if err != nil {
		log.Fatalf("failed to build scraper client: %v", err)
	}

	sitemapFetcher, err := sitemap.New(sitemap.Config{
		UserAgent: cfg.HTTPUserAgent,
		Timeout:   cfg.Timeouts.Sitemap,
	})
	if err != nil {
		log.Fatalf("failed to build sitemap client: %v", err)
	}

	ids := system.UUIDGenerator{}
	clock := system.RealClock{}

	deepPageAnalysis := usecase.NewDeepPageAnalysis(pages, scans, adsRepo, adsLibrary, queue, ids, clock)
	siteAnalysis := usecase.NewSiteAnalysis(pages, profiles, htmlFetcher, queue, ids, clock, logger)
	catalogSizing := usecase.NewCatalogSizing(pages, sitemapFetcher, clock, logger)
	detectAlerts := usecase.NewDetectAlerts(alerts, ids, clock, logger)
	computeScore := usecase.NewComputeShopScore(pages, adsRepo, shopScores, detectAlerts, ids, clock)
	analyzeCreatives := usecase.NewAnalyzeCreatives(adsRepo, creatives, ids, clock, logger)
	snapshotMetrics := usecase.NewSnapshotMetrics(pages, pageMetrics, ids, clock, logger)

	handleTask := func(ctx context.Context, task ports.Task) error {
		payload := task.Payload
		pageID := payloadString(payload, "page_id")

		switch task.Kind {
		case ports.TaskScanPage:
			page, err := pages.Get(ctx, pageID)
			if err != nil {
				return err
			}
			country := domain.Country("US")
			if page.Country != nil {
				country = *page.Country
			}
			_, err = deepPageAnalysis.Execute(ctx, pageID, country, ids.NewID())
			return err

		case ports.TaskSiteAnalysis:
			rawURL := payloadString(payload, "url")
			url, err := domain.NewURL(rawURL)
			if err != nil {
				return err
			}
			_, err = siteAnalysis.Execute(ctx, pageID, url)
			return err

		case ports.TaskCatalogSizing:
			rawURL := payloadString(payload, "url")
			url, err := domain.NewURL(rawURL)
			if err != nil {
				return err
			}
			page, err := pages.Get(ctx, pageID)
			if err != nil {
				return err
			}
			country := domain.Country("US")
			if page.Country != nil {
				country = *page.Country
			}
			_, err = catalogSizing.Execute(ctx, pageID, url, country)
			return err

		case ports.TaskComputeShopScore:
			_, err := computeScore.Execute(ctx, pageID)
			return err

		case ports.TaskAnalyzeCreatives:
			_, err := analyzeCreatives.Execute(ctx, pageID)
			return err

		case ports.TaskSnapshotMetrics:
			_, err := snapshotMetrics.Run(ctx)
			return err

		default:
			return fmt.Errorf("unknown task kind %q", task.Kind)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerConcurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			runWorkerLoop(ctx, logger, queue, handleTask)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runReaperLoop(ctx, logger, queue)
	}()

	logger.Info(ctx, "worker pool started", map[string]any{"concurrency": cfg.WorkerConcurrency})
	<-ctx.Done()
	logger.Info(ctx, "worker pool shutting down", nil)
	wg.Wait()
}

// runReaperLoop periodically recovers tasks left in a per-worker processing
// list by a worker that claimed them and then crashed or was killed before
// acking or requeuing, so they don't sit stuck past their visibility window.
func runReaperLoop(ctx context.Context, logger *logging.Logger, queue *taskqueue.Queue) {
	ticker := time.NewTicker(reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recovered, err := queue.ReapExpired(ctx, 0)
			if err != nil {
				logger.Error(ctx, "task reap failed", err, nil)
				continue
			}
			if recovered > 0 {
				logger.Warn(ctx, "reaped expired tasks", map[string]any{"recovered": recovered})
			}
		}
	}
}

func runWorkerLoop(ctx context.Context, logger *logging.Logger, queue *taskqueue.Queue, handle func(context.Context, ports.Task) error) {
	for {
		if ctx.Err() != nil {
			return
		}
		claimed, err := queue.Claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "task claim failed", err, nil)
			continue
		}
		if claimed == nil {
			continue
		}

		taskCtx := logging.WithTraceID(ctx, logging.NewTraceID())
		if err := handle(taskCtx, claimed.Task); err != nil {
			logger.Error(taskCtx, "task execution failed", err, map[string]any{"kind": string(claimed.Task.Kind)})
			if reqErr := queue.Requeue(taskCtx, claimed.Token); reqErr != nil {
				logger.Error(taskCtx, "task requeue failed", reqErr, nil)
			}
			continue
		}
		if err := queue.Ack(taskCtx, claimed.Token); err != nil {
			logger.Error(taskCtx, "task ack failed", err, nil)
		}
	}
}
