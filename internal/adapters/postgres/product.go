package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/shopsignal/platform/internal/domain"
)

// ProductStore implements ports.ProductRepository using PostgreSQL.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a new PostgreSQL-backed product repository.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// UpsertBatch writes every product in one transaction, keyed by
// (page_id, handle): repeated observations refresh price/availability and
// bump last_seen_at without duplicating rows.
func (s *ProductStore) UpsertBatch(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (
			id, page_id, handle, title, url, price_low, price_high, currency,
			is_available, tags, vendor, first_seen_at, last_seen_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (page_id, handle) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			price_low = EXCLUDED.price_low,
			price_high = EXCLUDED.price_high,
			currency = EXCLUDED.currency,
			is_available = EXCLUDED.is_available,
			tags = EXCLUDED.tags,
			vendor = EXCLUDED.vendor,
			last_seen_at = EXCLUDED.last_seen_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, product := range products {
		var url *string
		if product.URL != nil {
			v := product.URL.String()
			url = &v
		}
		var currency *string
		if product.Currency != nil {
			v := string(*product.Currency)
			currency = &v
		}
		if _, err := stmt.ExecContext(ctx,
			product.ID, product.PageID, product.Handle, product.Title, url,
			product.PriceLow, product.PriceHigh, currency, product.IsAvailable,
			pq.Array(product.Tags), product.Vendor, product.FirstSeenAt, product.LastSeenAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *ProductStore) ListByPage(ctx context.Context, pageID string, limit, offset int) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, handle, title, url, price_low, price_high, currency,
		       is_available, tags, vendor, first_seen_at, last_seen_at
		FROM products WHERE page_id = $1 ORDER BY first_seen_at DESC LIMIT $2 OFFSET $3
	`, pageID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var (
			id, pid, handle                   string
			title, url, currency, vendor      sql.NullString
			priceLow, priceHigh                sql.NullFloat64
			isAvailable                        sql.NullBool
			tags                               pq.StringArray
			firstSeenAt, lastSeenAt            sql.NullTime
		)
		if err := rows.Scan(&id, &pid, &handle, &title, &url, &priceLow, &priceHigh, &currency,
			&isAvailable, &tags, &vendor, &firstSeenAt, &lastSeenAt); err != nil {
			return nil, err
		}
		product := domain.Product{
			ID:          id,
			PageID:      pid,
			Handle:      handle,
			Tags:        tags,
			FirstSeenAt: firstSeenAt.Time,
			LastSeenAt:  lastSeenAt.Time,
		}
		if title.Valid {
			product.Title = &title.String
		}
		if url.Valid {
			if u, err := domain.NewURL(url.String); err == nil {
				product.URL = &u
			}
		}
		if priceLow.Valid {
			product.PriceLow = &priceLow.Float64
		}
		if priceHigh.Valid {
			product.PriceHigh = &priceHigh.Float64
		}
		if currency.Valid {
			if c, err := domain.NewCurrency(currency.String); err == nil {
				product.Currency = &c
			}
		}
		if isAvailable.Valid {
			product.IsAvailable = &isAvailable.Bool
		}
		if vendor.Valid {
			product.Vendor = &vendor.String
		}
		out = append(out, product)
	}
	return out, rows.Err()
}

func (s *ProductStore) CountByPage(ctx context.Context, pageID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE page_id = $1`, pageID).Scan(&count)
	return count, err
}
