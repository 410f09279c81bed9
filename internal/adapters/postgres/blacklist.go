package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// BlacklistStore implements ports.BlacklistRepository using PostgreSQL.
type BlacklistStore struct {
	db *sql.DB
}

// NewBlacklistStore creates a new PostgreSQL-backed blacklist repository.
func NewBlacklistStore(db *sql.DB) *BlacklistStore {
	return &BlacklistStore{db: db}
}

func (s *BlacklistStore) IsBlacklisted(ctx context.Context, advertiserID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blacklisted_pages WHERE advertiser_id = $1)`, advertiserID,
	).Scan(&exists)
	return exists, err
}

func (s *BlacklistStore) Add(ctx context.Context, advertiserID, reason string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklisted_pages (advertiser_id, reason, created_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (advertiser_id) DO UPDATE SET reason = EXCLUDED.reason
	`, advertiserID, reason, now)
	return err
}

func (s *BlacklistStore) Remove(ctx context.Context, advertiserID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM blacklisted_pages WHERE advertiser_id = $1`, advertiserID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return platerrors.NotFound("blacklist_entry", advertiserID)
	}
	return nil
}

func (s *BlacklistStore) List(ctx context.Context) ([]domain.BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT advertiser_id, reason, created_at FROM blacklisted_pages ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BlacklistEntry
	for rows.Next() {
		var (
			advertiserID, reason string
			createdAt            sql.NullTime
		)
		if err := rows.Scan(&advertiserID, &reason, &createdAt); err != nil {
			return nil, err
		}
		out = append(out, domain.BlacklistEntry{AdvertiserID: advertiserID, Reason: reason, CreatedAt: createdAt.Time})
	}
	return out, rows.Err()
}
