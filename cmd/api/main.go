// Command api serves the HTTP surface described in SPEC_FULL.md §6: page
// and product reads, keyword search, watchlists, alerts, and the blacklist
// CRUD, backed by Postgres and dispatching background work onto Redis.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/shopsignal/platform/internal/adapters/adslibrary"
	"github.com/shopsignal/platform/internal/adapters/postgres"
	"github.com/shopsignal/platform/internal/adapters/taskqueue"
	"github.com/shopsignal/platform/internal/httpapi"
	"github.com/shopsignal/platform/internal/platform/config"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/platform/metrics"
	"github.com/shopsignal/platform/internal/platform/system"
	"github.com/shopsignal/platform/internal/usecase"

	goredis "github.com/go-redis/redis/v8"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.NewFromEnv("api")

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	redisOpts, err := goredis.ParseURL(cfg.TaskBrokerURL)
	if err != nil {
		log.Fatalf("invalid TASK_BROKER_URL: %v", err)
	}
	rdb := goredis.NewClient(redisOpts)
	defer rdb.Close()

	pages := postgres.NewPageStore(db)
	ads := postgres.NewAdStore(db)
	scans := postgres.NewScanStore(db)
	keywordRuns := postgres.NewKeywordRunStore(db)
	alerts := postgres.NewAlertStore(db)
	watchlists := postgres.NewWatchlistStore(db)
	products := postgres.NewProductStore(db)
	blacklist := postgres.NewBlacklistStore(db)
	shopScores := postgres.NewShopScoreStore(db)
	pageMetrics := postgres.NewPageDailyMetricsStore(db)

	queue := taskqueue.New(rdb, taskqueue.Config{})

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

	ids := system.UUIDGenerator{}
	clock := system.RealClock{}

	blacklistFn := func(advertiserID string) bool {
		blacklisted, err := blacklist.IsBlacklisted(ctx, advertiserID)
		if err != nil {
			logger.Error(ctx, "blacklist lookup failed", err, map[string]any{"advertiser_id": advertiserID})
			return false
		}
		return blacklisted
	}

	rankedShops := usecase.NewRankedShops(pages)
	keywordSearch := usecase.NewKeywordSearch(keywordRuns, pages, ads, adsLibrary, ids, clock, logger, blacklistFn)
	detectAlerts := usecase.NewDetectAlerts(alerts, ids, clock, logger)
	computeScore := usecase.NewComputeShopScore(pages, ads, shopScores, detectAlerts, ids, clock)
	metricsHistory := usecase.NewPageMetricsHistory(pageMetrics, clock)
	monitoringSummary := usecase.NewMonitoringSummary(pages, alerts, pageMetrics, clock)
	watchlistsUC := usecase.NewWatchlists(watchlists, pages, queue, ids, clock)

	var promMetrics *metrics.Metrics
	if metrics.Enabled() {
		promMetrics = metrics.Init("shopsignal-api")
	}

	ready := true
	router := httpapi.NewRouter(httpapi.Deps{
		Pages:          pages,
		Scans:          scans,
		Alerts:         alerts,
		Watchlists:     watchlists,
		Products:       products,
		Blacklist:      blacklist,
		RankedShops:    rankedShops,
		KeywordSearch:  keywordSearch,
		ComputeScore:   computeScore,
		MetricsHistory: metricsHistory,
		Monitoring:     monitoringSummary,
		WatchlistsUC:   watchlistsUC,
		Log:            logger,
		Metrics:        promMetrics,
	}, &ready)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info(ctx, "api server starting", map[string]any{"port": cfg.HTTPPort})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ready = false
	logger.Info(ctx, "api server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown error", err, nil)
	}
}
