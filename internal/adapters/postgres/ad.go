package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// AdStore implements ports.AdRepository using PostgreSQL.
type AdStore struct {
	db *sql.DB
}

// NewAdStore creates a new PostgreSQL-backed ad repository.
func NewAdStore(db *sql.DB) *AdStore {
	return &AdStore{db: db}
}

// UpsertBatch writes every ad in one transaction, keyed by library_ad_id
// (§8 invariant: first-write-wins identity, subsequent observations
// refresh last_seen_at and mutable fields).
func (s *AdStore) UpsertBatch(ctx context.Context, ads []domain.Ad) error {
	if len(ads) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ads (
			id, page_id, advertiser_id, library_ad_id, title, body, link_url,
			cta_type, status, platforms, countries, currency,
			first_seen_at, last_seen_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (library_ad_id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			link_url = EXCLUDED.link_url,
			cta_type = EXCLUDED.cta_type,
			status = EXCLUDED.status,
			platforms = EXCLUDED.platforms,
			countries = EXCLUDED.countries,
			last_seen_at = EXCLUDED.last_seen_at,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ad := range ads {
		var linkURL *string
		if ad.LinkURL != nil {
			s := ad.LinkURL.String()
			linkURL = &s
		}
		platforms := make([]string, len(ad.Platforms))
		for i, p := range ad.Platforms {
			platforms[i] = string(p)
		}
		countries := make([]string, len(ad.Countries))
		for i, c := range ad.Countries {
			countries[i] = string(c)
		}
		var currency *string
		if ad.Currency != nil {
			v := string(*ad.Currency)
			currency = &v
		}

		if _, err := stmt.ExecContext(ctx,
			ad.ID, ad.PageID, ad.AdvertiserID, ad.LibraryAdID, ad.Title, ad.Body, linkURL,
			ad.CTAType, string(ad.Status), pq.Array(platforms), pq.Array(countries), currency,
			ad.FirstSeenAt, ad.LastSeenAt, ad.CreatedAt, ad.UpdatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *AdStore) Get(ctx context.Context, id string) (*domain.Ad, error) {
	row := s.db.QueryRowContext(ctx, adSelectColumns+` FROM ads WHERE id = $1`, id)
	return scanAd(row)
}

func (s *AdStore) GetByLibraryAdID(ctx context.Context, libraryAdID string) (*domain.Ad, error) {
	row := s.db.QueryRowContext(ctx, adSelectColumns+` FROM ads WHERE library_ad_id = $1`, libraryAdID)
	return scanAd(row)
}

func (s *AdStore) ListByPage(ctx context.Context, pageID string) ([]domain.Ad, error) {
	rows, err := s.db.QueryContext(ctx, adSelectColumns+` FROM ads WHERE page_id = $1 ORDER BY first_seen_at`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Ad
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ad)
	}
	return out, rows.Err()
}

func (s *AdStore) CountActiveByPage(ctx context.Context, pageID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ads WHERE page_id = $1 AND status = 'active'`, pageID).Scan(&count)
	return count, err
}

func (s *AdStore) CountTotalByPage(ctx context.Context, pageID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ads WHERE page_id = $1`, pageID).Scan(&count)
	return count, err
}

const adSelectColumns = `
	SELECT id, page_id, advertiser_id, library_ad_id, title, body, link_url,
	       cta_type, status, platforms, countries, currency,
	       first_seen_at, last_seen_at, created_at, updated_at
`

func scanAd(scanner rowScanner) (*domain.Ad, error) {
	var (
		id, pageID, advertiserID, libraryAdID string
		title, body, linkURL, ctaType, currency sql.NullString
		status                                 string
		platforms, countries                   pq.StringArray
		firstSeenAt, lastSeenAt, createdAt, updatedAt time.Time
	)
	if err := scanner.Scan(
		&id, &pageID, &advertiserID, &libraryAdID, &title, &body, &linkURL,
		&ctaType, &status, &platforms, &countries, &currency,
		&firstSeenAt, &lastSeenAt, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("ad", id)
		}
		return nil, err
	}

	ad := &domain.Ad{
		ID:           id,
		PageID:       pageID,
		AdvertiserID: advertiserID,
		LibraryAdID:  libraryAdID,
		Status:       domain.AdStatus(status),
		FirstSeenAt:  firstSeenAt,
		LastSeenAt:   lastSeenAt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if title.Valid {
		ad.Title = &title.String
	}
	if body.Valid {
		ad.Body = &body.String
	}
	if linkURL.Valid {
		if u, err := domain.NewURL(linkURL.String); err == nil {
			ad.LinkURL = &u
		}
	}
	if ctaType.Valid {
		ad.CTAType = &ctaType.String
	}
	if currency.Valid {
		if c, err := domain.NewCurrency(currency.String); err == nil {
			ad.Currency = &c
		}
	}
	for _, p := range platforms {
		ad.Platforms = append(ad.Platforms, domain.AdPlatform(p))
	}
	for _, c := range countries {
		if country, err := domain.NewCountry(c); err == nil {
			ad.Countries = append(ad.Countries, country)
		}
	}
	return ad, nil
}
