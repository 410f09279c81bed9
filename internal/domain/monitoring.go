package domain

import "time"

// MonitoringSummary is a pure read-side aggregation over the page, alert,
// and metrics-snapshot repositories (§4.12). It carries no write side
// effects of its own.
type MonitoringSummary struct {
	TotalPages              int
	PagesWithScores         int
	AlertsLast24h           int
	AlertsLast7d            int
	LastMetricsSnapshotDate *time.Time
	MetricsSnapshotsCount   int
	GeneratedAt             time.Time
}
