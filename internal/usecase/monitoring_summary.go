package usecase

import (
	"context"
	"time"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/ports"
)

// MonitoringSummaryUseCase implements the corpus-wide monitoring-summary
// read use case (§4.12): a pure aggregation over the page, alert, and
// metrics-snapshot repositories with no write side effects.
type MonitoringSummaryUseCase struct {
	pages   ports.PageRepository
	alerts  ports.AlertRepository
	metrics ports.PageDailyMetricsRepository
	clock   ports.Clock
}

// NewMonitoringSummary wires a MonitoringSummaryUseCase.
func NewMonitoringSummary(pages ports.PageRepository, alerts ports.AlertRepository, metrics ports.PageDailyMetricsRepository, clock ports.Clock) *MonitoringSummaryUseCase {
	return &MonitoringSummaryUseCase{pages: pages, alerts: alerts, metrics: metrics, clock: clock}
}

// Execute assembles the monitoring summary.
func (uc *MonitoringSummaryUseCase) Execute(ctx context.Context) (domain.MonitoringSummary, error) {
	now := uc.clock.Now()

	totalPages, err := uc.pages.Count(ctx)
	if err != nil {
		return domain.MonitoringSummary{}, errors.Repository("count_pages", err)
	}
	pagesWithScores, err := uc.pages.CountWithScores(ctx)
	if err != nil {
		return domain.MonitoringSummary{}, errors.Repository("count_pages_with_scores", err)
	}
	alerts24h, err := uc.alerts.CountSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return domain.MonitoringSummary{}, errors.Repository("count_alerts_24h", err)
	}
	alerts7d, err := uc.alerts.CountSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return domain.MonitoringSummary{}, errors.Repository("count_alerts_7d", err)
	}
	lastSnapshot, err := uc.metrics.LatestSnapshotDate(ctx)
	if err != nil {
		return domain.MonitoringSummary{}, errors.Repository("latest_snapshot_date", err)
	}
	snapshotsCount, err := uc.metrics.CountAll(ctx)
	if err != nil {
		return domain.MonitoringSummary{}, errors.Repository("count_snapshots", err)
	}

	return domain.MonitoringSummary{
		TotalPages:              totalPages,
		PagesWithScores:         pagesWithScores,
		AlertsLast24h:           alerts24h,
		AlertsLast7d:            alerts7d,
		LastMetricsSnapshotDate: lastSnapshot,
		MetricsSnapshotsCount:   snapshotsCount,
		GeneratedAt:             now,
	}, nil
}
