// Package postgres implements every internal/ports repository over a
// PostgreSQL store, following the teacher's direct-SQL service-store
// pattern: a thin struct wrapping *sql.DB, parameterized queries, and a
// scanner function per row shape.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// PageStore implements ports.PageRepository using PostgreSQL.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new PostgreSQL-backed page repository.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

func (s *PageStore) Create(ctx context.Context, page *domain.Page) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (
			id, advertiser_id, url, domain, status, country, language, currency,
			category, product_count, is_commerce_platform, profile_id,
			active_ads_count, total_ads_count, score, first_seen_at,
			last_scanned_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		page.ID, page.AdvertiserID, page.URL.String(), page.Domain, string(page.State.Status),
		nullableCountry(page.Country), nullableLanguage(page.Language), nullableCurrency(page.Currency),
		nullableCategory(page.Category), page.ProductCount, page.IsCommercePlatform, page.ProfileID,
		page.ActiveAdsCount, page.TotalAdsCount, page.Score, page.FirstSeenAt,
		page.LastScannedAt, page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return nil
}

func (s *PageStore) Update(ctx context.Context, page *domain.Page) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE pages SET
			status = $1, country = $2, language = $3, currency = $4, category = $5,
			product_count = $6, is_commerce_platform = $7, profile_id = $8,
			active_ads_count = $9, total_ads_count = $10, score = $11,
			last_scanned_at = $12, updated_at = $13
		WHERE id = $14
	`,
		string(page.State.Status), nullableCountry(page.Country), nullableLanguage(page.Language),
		nullableCurrency(page.Currency), nullableCategory(page.Category), page.ProductCount,
		page.IsCommercePlatform, page.ProfileID, page.ActiveAdsCount, page.TotalAdsCount,
		page.Score, page.LastScannedAt, page.UpdatedAt, page.ID,
	)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("page %s not found", page.ID)
	}
	return nil
}

func (s *PageStore) Get(ctx context.Context, id string) (*domain.Page, error) {
	row := s.db.QueryRowContext(ctx, pageSelectColumns+` FROM pages WHERE id = $1`, id)
	return scanPage(row)
}

func (s *PageStore) GetByDomain(ctx context.Context, host string) (*domain.Page, error) {
	row := s.db.QueryRowContext(ctx, pageSelectColumns+` FROM pages WHERE domain = $1`, host)
	return scanPage(row)
}

func (s *PageStore) GetByAdvertiserID(ctx context.Context, advertiserID string) (*domain.Page, error) {
	row := s.db.QueryRowContext(ctx, pageSelectColumns+` FROM pages WHERE advertiser_id = $1`, advertiserID)
	return scanPage(row)
}

func (s *PageStore) List(ctx context.Context, limit, offset int) ([]*domain.Page, error) {
	rows, err := s.db.QueryContext(ctx, pageSelectColumns+` FROM pages ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, page)
	}
	return out, rows.Err()
}

func (s *PageStore) Ranked(ctx context.Context, criteria domain.RankingCriteria) (domain.RankedShopsResult, error) {
	return rankedShops(ctx, s.db, criteria)
}

func (s *PageStore) Top(ctx context.Context, limit int) ([]domain.RankedShop, error) {
	criteria, err := domain.NewRankingCriteria(limit, 0, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	result, err := rankedShops(ctx, s.db, criteria)
	if err != nil {
		return nil, err
	}
	return result.Shops, nil
}

func (s *PageStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count)
	return count, err
}

func (s *PageStore) CountWithScores(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE score > 0`).Scan(&count)
	return count, err
}

const pageSelectColumns = `
	SELECT id, advertiser_id, url, domain, status, country, language, currency,
	       category, product_count, is_commerce_platform, profile_id,
	       active_ads_count, total_ads_count, score, first_seen_at,
	       last_scanned_at, created_at, updated_at
`

// rowScanner abstracts *sql.Row / *sql.Rows for shared scan helpers,
// matching the teacher's core.RowScanner pattern.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(scanner rowScanner) (*domain.Page, error) {
	var (
		id, advertiserID, rawURL, host, status string
		country, language, currency, category  sql.NullString
		productCount                           int
		isCommerce                             bool
		profileID                              sql.NullString
		activeAds, totalAds                    int
		score                                  float64
		firstSeenAt, createdAt, updatedAt       sql.NullTime
		lastScannedAt                          sql.NullTime
	)
	if err := scanner.Scan(
		&id, &advertiserID, &rawURL, &host, &status, &country, &language, &currency,
		&category, &productCount, &isCommerce, &profileID, &activeAds, &totalAds,
		&score, &firstSeenAt, &lastScannedAt, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("page", id)
		}
		return nil, err
	}

	url, err := domain.NewURL(rawURL)
	if err != nil {
		return nil, err
	}
	pageState, err := domain.PageStatusFromString(status)
	if err != nil {
		return nil, err
	}

	page := &domain.Page{
		ID:                 id,
		AdvertiserID:       advertiserID,
		URL:                url,
		Domain:             host,
		State:              domain.PageState{Status: pageState},
		ProductCount:       productCount,
		IsCommercePlatform: isCommerce,
		ActiveAdsCount:     activeAds,
		TotalAdsCount:      totalAds,
		Score:              score,
		FirstSeenAt:        firstSeenAt.Time,
		CreatedAt:          createdAt.Time,
		UpdatedAt:          updatedAt.Time,
	}
	if country.Valid {
		if c, err := domain.NewCountry(country.String); err == nil {
			page.Country = &c
		}
	}
	if language.Valid {
		if l, err := domain.NewLanguage(language.String); err == nil {
			page.Language = &l
		}
	}
	if currency.Valid {
		if c, err := domain.NewCurrency(currency.String); err == nil {
			page.Currency = &c
		}
	}
	if category.Valid {
		if c, err := domain.NewCategory(category.String); err == nil {
			page.Category = &c
		}
	}
	if profileID.Valid {
		page.ProfileID = &profileID.String
	}
	if lastScannedAt.Valid {
		page.LastScannedAt = &lastScannedAt.Time
	}
	return page, nil
}

func nullableCountry(c *domain.Country) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func nullableLanguage(l *domain.Language) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

func nullableCurrency(c *domain.Currency) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func nullableCategory(c *domain.Category) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}
