// Package httpapi binds the use-case layer to the inbound HTTP contract
// (§6) over gorilla/mux, matching the teacher's infrastructure/middleware
// chain for recovery, logging, metrics, and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/platform/metrics"
	"github.com/shopsignal/platform/internal/platform/middleware"
	"github.com/shopsignal/platform/internal/ports"
	"github.com/shopsignal/platform/internal/usecase"
)

// Deps wires every use case and repository the HTTP surface reads from
// directly (pages, scans, alerts, watchlists, products, blacklist — these
// have no dedicated use-case wrapper beyond the repository read itself).
type Deps struct {
	Pages       ports.PageRepository
	Scans       ports.ScanRepository
	Alerts      ports.AlertRepository
	Watchlists  ports.WatchlistRepository
	Products    ports.ProductRepository
	Blacklist   ports.BlacklistRepository

	RankedShops     *usecase.RankedShops
	KeywordSearch   *usecase.KeywordSearch
	ComputeScore    *usecase.ComputeShopScore
	MetricsHistory  *usecase.PageMetricsHistory
	Monitoring      *usecase.MonitoringSummaryUseCase
	WatchlistsUC    *usecase.Watchlists

	Log     *logging.Logger
	Metrics *metrics.Metrics
}

// NewRouter builds the full HTTP surface: the routes in §6 plus the
// ambient health/metrics endpoints, wrapped in the teacher's middleware
// chain (recovery, logging, metrics, rate limiting, request timeout, body
// limit).
func NewRouter(deps Deps, ready *bool) http.Handler {
	r := mux.NewRouter()

	h := &handlers{deps: deps}

	r.HandleFunc("/pages", h.listPages).Methods(http.MethodGet)
	r.HandleFunc("/pages/ranked", h.rankedPages).Methods(http.MethodGet)
	r.HandleFunc("/pages/top", h.topPages).Methods(http.MethodGet)
	r.HandleFunc("/pages/{id}", h.getPage).Methods(http.MethodGet)
	r.HandleFunc("/pages/{id}/score", h.getPageScore).Methods(http.MethodGet)
	r.HandleFunc("/pages/{id}/score/recompute", h.recomputePageScore).Methods(http.MethodPost)
	r.HandleFunc("/pages/{id}/metrics/history", h.pageMetricsHistory).Methods(http.MethodGet)
	r.HandleFunc("/pages/{id}/products", h.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/pages/{id}/products/insights", h.productInsights).Methods(http.MethodGet)

	r.HandleFunc("/scans/{id}", h.getScan).Methods(http.MethodGet)
	r.HandleFunc("/keywords/search", h.keywordSearch).Methods(http.MethodPost)

	r.HandleFunc("/alerts", h.listRecentAlerts).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{page_id}", h.listPageAlerts).Methods(http.MethodGet)

	r.HandleFunc("/watchlists", h.createWatchlist).Methods(http.MethodPost)
	r.HandleFunc("/watchlists/{id}", h.getWatchlist).Methods(http.MethodGet)
	r.HandleFunc("/watchlists/{id}", h.renameWatchlist).Methods(http.MethodPut)
	r.HandleFunc("/watchlists/{id}", h.deleteWatchlist).Methods(http.MethodDelete)
	r.HandleFunc("/watchlists/{id}/items", h.listWatchlistItems).Methods(http.MethodGet)
	r.HandleFunc("/watchlists/{id}/items", h.addWatchlistItem).Methods(http.MethodPost)
	r.HandleFunc("/watchlists/{id}/items/{page_id}", h.removeWatchlistItem).Methods(http.MethodDelete)
	r.HandleFunc("/watchlists/{id}/scan_now", h.scanWatchlistNow).Methods(http.MethodPost)

	r.HandleFunc("/blacklist", h.listBlacklist).Methods(http.MethodGet)
	r.HandleFunc("/blacklist", h.addBlacklistEntry).Methods(http.MethodPost)
	r.HandleFunc("/blacklist/{advertiser_id}", h.removeBlacklistEntry).Methods(http.MethodDelete)

	r.HandleFunc("/monitoring/summary", h.monitoringSummary).Methods(http.MethodGet)

	health := middleware.NewHealthChecker("1.0.0")
	health.RegisterCheck("database", func() error {
		_, err := deps.Pages.Count(context.Background())
		return err
	})
	r.HandleFunc("/healthz", health.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/livez", middleware.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", middleware.ReadinessHandler(ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	limiter := middleware.NewRateLimiterWithWindow(600, time.Minute, 50, deps.Log)

	recovery := middleware.NewRecoveryMiddleware(deps.Log)
	r.Use(recovery.Handler)
	r.Use(middleware.LoggingMiddleware(deps.Log))
	if deps.Metrics != nil {
		r.Use(middleware.MetricsMiddleware("shopsignal-api", deps.Metrics))
	}
	r.Use(limiter.Handler)
	r.Use(middleware.NewTimeoutMiddleware(30 * time.Second).Handler)
	r.Use(middleware.NewBodyLimitMiddleware(1 << 20).Handler)

	return r
}
