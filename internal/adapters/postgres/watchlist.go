package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// WatchlistStore implements ports.WatchlistRepository using PostgreSQL.
type WatchlistStore struct {
	db *sql.DB
}

// NewWatchlistStore creates a new PostgreSQL-backed watchlist repository.
func NewWatchlistStore(db *sql.DB) *WatchlistStore {
	return &WatchlistStore{db: db}
}

func (s *WatchlistStore) Create(ctx context.Context, watchlist *domain.Watchlist) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watchlists (id, owner_id, name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, watchlist.ID, watchlist.OwnerID, watchlist.Name, watchlist.CreatedAt, watchlist.UpdatedAt)
	return err
}

func (s *WatchlistStore) Update(ctx context.Context, watchlist *domain.Watchlist) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE watchlists SET name = $1, updated_at = $2 WHERE id = $3
	`, watchlist.Name, watchlist.UpdatedAt, watchlist.ID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return platerrors.NotFound("watchlist", watchlist.ID)
	}
	return nil
}

func (s *WatchlistStore) Get(ctx context.Context, id string) (*domain.Watchlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, created_at, updated_at FROM watchlists WHERE id = $1
	`, id)

	var (
		watchlistID, ownerID, name string
		createdAt, updatedAt       sql.NullTime
	)
	if err := row.Scan(&watchlistID, &ownerID, &name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("watchlist", id)
		}
		return nil, err
	}
	return &domain.Watchlist{
		ID:        watchlistID,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: createdAt.Time,
		UpdatedAt: updatedAt.Time,
	}, nil
}

func (s *WatchlistStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM watchlists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return platerrors.NotFound("watchlist", id)
	}
	return nil
}

func (s *WatchlistStore) AddItem(ctx context.Context, item *domain.WatchlistItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watchlist_items (id, watchlist_id, page_id, note, added_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (watchlist_id, page_id) DO NOTHING
	`, item.ID, item.WatchlistID, item.PageID, item.Note, item.AddedAt)
	return err
}

func (s *WatchlistStore) RemoveItem(ctx context.Context, watchlistID, pageID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM watchlist_items WHERE watchlist_id = $1 AND page_id = $2
	`, watchlistID, pageID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return platerrors.NotFound("watchlist_item", pageID)
	}
	return nil
}

func (s *WatchlistStore) ListItems(ctx context.Context, watchlistID string) ([]domain.WatchlistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, watchlist_id, page_id, note, added_at
		FROM watchlist_items WHERE watchlist_id = $1 ORDER BY added_at ASC
	`, watchlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WatchlistItem
	for rows.Next() {
		var (
			id, wid, pageID string
			note            sql.NullString
			addedAt         sql.NullTime
		)
		if err := rows.Scan(&id, &wid, &pageID, &note, &addedAt); err != nil {
			return nil, err
		}
		item := domain.WatchlistItem{
			ID:          id,
			WatchlistID: wid,
			PageID:      pageID,
			AddedAt:     addedAt.Time,
		}
		if note.Valid {
			item.Note = &note.String
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
