package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// ShopScoreStore implements ports.ShopScoreRepository using PostgreSQL.
type ShopScoreStore struct {
	db *sql.DB
}

// NewShopScoreStore creates a new PostgreSQL-backed shop-score repository.
func NewShopScoreStore(db *sql.DB) *ShopScoreStore {
	return &ShopScoreStore{db: db}
}

func (s *ShopScoreStore) Create(ctx context.Context, score domain.ShopScore) error {
	components, err := json.Marshal(score.Components)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shop_scores (id, page_id, score, components, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, score.ID, score.PageID, score.Score, components, score.CreatedAt)
	return err
}

func (s *ShopScoreStore) GetLatest(ctx context.Context, pageID string) (*domain.ShopScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, page_id, score, components, created_at
		FROM shop_scores WHERE page_id = $1 ORDER BY created_at DESC LIMIT 1
	`, pageID)

	var (
		id, pid    string
		score      float64
		components []byte
		createdAt  sql.NullTime
	)
	if err := row.Scan(&id, &pid, &score, &components, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("shop_score", pageID)
		}
		return nil, err
	}

	var componentMap map[string]float64
	if len(components) > 0 {
		if err := json.Unmarshal(components, &componentMap); err != nil {
			return nil, err
		}
	}

	result := domain.NewShopScore(id, pid, score, componentMap, createdAt.Time)
	return &result, nil
}
