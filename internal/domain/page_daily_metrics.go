package domain

import "time"

// MaxMetricsHistoryDays bounds any history query regardless of caller
// intent (§4.9).
const MaxMetricsHistoryDays = 90

// PageDailyMetrics is one snapshot per (page, date), upserted by the
// metrics-historisation job.
type PageDailyMetrics struct {
	ID           string
	PageID       string
	Date         time.Time
	AdsCount     int
	ShopScore    float64
	ProductCount *int
	CreatedAt    time.Time
}

// Tier derives this snapshot's tier from its recorded score.
func (m PageDailyMetrics) Tier() Tier { return ScoreToTier(m.ShopScore) }

// PageMetricsHistoryResult bundles an ascending-by-date history slice with
// the trivial derived helpers the API surface exposes.
type PageMetricsHistoryResult struct {
	Snapshots []PageDailyMetrics
}

// FirstDate returns the earliest snapshot date, or the zero time if empty.
func (r PageMetricsHistoryResult) FirstDate() time.Time {
	if len(r.Snapshots) == 0 {
		return time.Time{}
	}
	return r.Snapshots[0].Date
}

// LastDate returns the latest snapshot date, or the zero time if empty.
func (r PageMetricsHistoryResult) LastDate() time.Time {
	if len(r.Snapshots) == 0 {
		return time.Time{}
	}
	return r.Snapshots[len(r.Snapshots)-1].Date
}

// ScoreTrend returns last-score minus first-score, or 0 if fewer than two
// snapshots are present.
func (r PageMetricsHistoryResult) ScoreTrend() float64 {
	if len(r.Snapshots) < 2 {
		return 0
	}
	return r.Snapshots[len(r.Snapshots)-1].ShopScore - r.Snapshots[0].ShopScore
}

// SnapshotJobSummary is the aggregate result of one metrics-historisation
// run over all pages.
type SnapshotJobSummary struct {
	PagesProcessed  int
	SnapshotsWritten int
	ErrorsCount     int
}
