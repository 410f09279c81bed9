package usecase

import (
	"context"
	"time"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/ports"
)

// SnapshotMetrics implements the daily metrics-historisation job (§4.9):
// one row per page per day, upserted from the page's current score and ad
// counts. A single page's failure is logged and skipped, never aborting
// the run.
type SnapshotMetrics struct {
	pages   ports.PageRepository
	metrics ports.PageDailyMetricsRepository
	ids     ports.IDGenerator
	clock   ports.Clock
	log     *logging.Logger
}

// NewSnapshotMetrics wires a SnapshotMetrics use case.
func NewSnapshotMetrics(pages ports.PageRepository, metrics ports.PageDailyMetricsRepository, ids ports.IDGenerator, clock ports.Clock, log *logging.Logger) *SnapshotMetrics {
	return &SnapshotMetrics{pages: pages, metrics: metrics, ids: ids, clock: clock, log: log}
}

// Run snapshots every known page, returning the job summary (§4.9).
func (uc *SnapshotMetrics) Run(ctx context.Context) (domain.SnapshotJobSummary, error) {
	pageIDs, err := uc.metrics.AllPageIDs(ctx)
	if err != nil {
		return domain.SnapshotJobSummary{}, errors.Repository("list_page_ids", err)
	}

	now := uc.clock.Now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summary := domain.SnapshotJobSummary{}
	for _, pageID := range pageIDs {
		summary.PagesProcessed++
		page, err := uc.pages.Get(ctx, pageID)
		if err != nil {
			summary.ErrorsCount++
			if uc.log != nil {
				uc.log.Warn(ctx, "snapshot page lookup failed", map[string]interface{}{"page_id": pageID, "error": err.Error()})
			}
			continue
		}

		var productCount *int
		if page.ProductCount > 0 {
			count := page.ProductCount
			productCount = &count
		}

		snapshot := domain.PageDailyMetrics{
			ID:           uc.ids.NewID(),
			PageID:       pageID,
			Date:         date,
			AdsCount:     page.ActiveAdsCount,
			ShopScore:    page.Score,
			ProductCount: productCount,
			CreatedAt:    now,
		}
		if err := uc.metrics.Upsert(ctx, snapshot); err != nil {
			summary.ErrorsCount++
			if uc.log != nil {
				uc.log.Warn(ctx, "snapshot upsert failed", map[string]interface{}{"page_id": pageID, "error": err.Error()})
			}
			continue
		}
		summary.SnapshotsWritten++
	}

	return summary, nil
}

// PageMetricsHistory implements the per-page metrics-history read use case,
// bounded by MaxMetricsHistoryDays regardless of the caller's requested
// range (§4.9).
type PageMetricsHistory struct {
	metrics ports.PageDailyMetricsRepository
	clock   ports.Clock
}

// NewPageMetricsHistory wires a PageMetricsHistory use case.
func NewPageMetricsHistory(metrics ports.PageDailyMetricsRepository, clock ports.Clock) *PageMetricsHistory {
	return &PageMetricsHistory{metrics: metrics, clock: clock}
}

// Execute returns a page's metrics history, clamping the lookback to
// MaxMetricsHistoryDays.
func (uc *PageMetricsHistory) Execute(ctx context.Context, pageID string, days, limit int) (domain.PageMetricsHistoryResult, error) {
	if days <= 0 || days > domain.MaxMetricsHistoryDays {
		days = domain.MaxMetricsHistoryDays
	}
	to := uc.clock.Now()
	from := to.AddDate(0, 0, -days)

	result, err := uc.metrics.History(ctx, pageID, from, to, limit)
	if err != nil {
		return domain.PageMetricsHistoryResult{}, errors.Repository("read_metrics_history", err)
	}
	return result, nil
}
