package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopsignal/platform/internal/domain"
)

// PageDailyMetricsStore implements ports.PageDailyMetricsRepository using
// PostgreSQL.
type PageDailyMetricsStore struct {
	db *sql.DB
}

// NewPageDailyMetricsStore creates a new PostgreSQL-backed metrics-history
// repository.
func NewPageDailyMetricsStore(db *sql.DB) *PageDailyMetricsStore {
	return &PageDailyMetricsStore{db: db}
}

func (s *PageDailyMetricsStore) Upsert(ctx context.Context, metrics domain.PageDailyMetrics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO page_daily_metrics (id, page_id, date, ads_count, shop_score, product_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (page_id, date) DO UPDATE SET
			ads_count = EXCLUDED.ads_count,
			shop_score = EXCLUDED.shop_score,
			product_count = EXCLUDED.product_count
	`, metrics.ID, metrics.PageID, metrics.Date, metrics.AdsCount, metrics.ShopScore,
		metrics.ProductCount, metrics.CreatedAt)
	return err
}

func (s *PageDailyMetricsStore) History(ctx context.Context, pageID string, from, to time.Time, limit int) (domain.PageMetricsHistoryResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, date, ads_count, shop_score, product_count, created_at
		FROM page_daily_metrics
		WHERE page_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
		LIMIT $4
	`, pageID, from, to, limit)
	if err != nil {
		return domain.PageMetricsHistoryResult{}, err
	}
	defer rows.Close()

	var snapshots []domain.PageDailyMetrics
	for rows.Next() {
		var (
			id, pid      string
			date         time.Time
			adsCount     int
			shopScore    float64
			productCount sql.NullInt64
			createdAt    time.Time
		)
		if err := rows.Scan(&id, &pid, &date, &adsCount, &shopScore, &productCount, &createdAt); err != nil {
			return domain.PageMetricsHistoryResult{}, err
		}
		snapshot := domain.PageDailyMetrics{
			ID:        id,
			PageID:    pid,
			Date:      date,
			AdsCount:  adsCount,
			ShopScore: shopScore,
			CreatedAt: createdAt,
		}
		if productCount.Valid {
			count := int(productCount.Int64)
			snapshot.ProductCount = &count
		}
		snapshots = append(snapshots, snapshot)
	}
	return domain.PageMetricsHistoryResult{Snapshots: snapshots}, rows.Err()
}

func (s *PageDailyMetricsStore) LatestSnapshotDate(ctx context.Context) (*time.Time, error) {
	var date sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM page_daily_metrics`).Scan(&date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !date.Valid {
		return nil, nil
	}
	return &date.Time, nil
}

func (s *PageDailyMetricsStore) CountAll(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page_daily_metrics`).Scan(&count)
	return count, err
}

func (s *PageDailyMetricsStore) AllPageIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM pages ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
