package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// CommerceProfileStore implements ports.CommerceProfileRepository using
// PostgreSQL.
type CommerceProfileStore struct {
	db *sql.DB
}

// NewCommerceProfileStore creates a new PostgreSQL-backed commerce-profile
// repository.
func NewCommerceProfileStore(db *sql.DB) *CommerceProfileStore {
	return &CommerceProfileStore{db: db}
}

func (s *CommerceProfileStore) Upsert(ctx context.Context, profile *domain.CommerceProfile) error {
	var themeName, themeVersion *string
	var themeIsCustom bool
	if profile.Theme != nil {
		themeName = &profile.Theme.Name
		themeVersion = profile.Theme.Version
		themeIsCustom = profile.Theme.IsCustom
	}

	methods := make([]string, 0, len(profile.PaymentMethods))
	for m := range profile.PaymentMethods {
		methods = append(methods, string(m))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commerce_profiles (
			id, page_id, shop_name, platform_domain, theme_name, theme_version,
			theme_is_custom, payment_methods, tracking_pixels, trust_score,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (page_id) DO UPDATE SET
			shop_name = EXCLUDED.shop_name,
			platform_domain = EXCLUDED.platform_domain,
			theme_name = EXCLUDED.theme_name,
			theme_version = EXCLUDED.theme_version,
			theme_is_custom = EXCLUDED.theme_is_custom,
			payment_methods = EXCLUDED.payment_methods,
			tracking_pixels = EXCLUDED.tracking_pixels,
			trust_score = EXCLUDED.trust_score,
			updated_at = EXCLUDED.updated_at
	`,
		profile.ID, profile.PageID, profile.ShopName, profile.PlatformDomain, themeName, themeVersion,
		themeIsCustom, pq.Array(methods), pq.Array(profile.TrackingPixels), profile.TrustScore,
		profile.CreatedAt, profile.UpdatedAt,
	)
	return err
}

func (s *CommerceProfileStore) GetByPage(ctx context.Context, pageID string) (*domain.CommerceProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, page_id, shop_name, platform_domain, theme_name, theme_version,
		       theme_is_custom, payment_methods, tracking_pixels, trust_score,
		       created_at, updated_at
		FROM commerce_profiles WHERE page_id = $1
	`, pageID)

	var (
		id, pid                                string
		shopName, platformDomain               sql.NullString
		themeName, themeVersion                sql.NullString
		themeIsCustom                          bool
		methods, pixels                        pq.StringArray
		trustScore                             sql.NullFloat64
		createdAt, updatedAt                    sql.NullTime
	)
	if err := row.Scan(
		&id, &pid, &shopName, &platformDomain, &themeName, &themeVersion,
		&themeIsCustom, &methods, &pixels, &trustScore, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("commerce_profile", pageID)
		}
		return nil, err
	}

	profile := &domain.CommerceProfile{
		ID:             id,
		PageID:         pid,
		TrackingPixels: pixels,
		CreatedAt:      createdAt.Time,
		UpdatedAt:      updatedAt.Time,
	}
	if shopName.Valid {
		profile.ShopName = &shopName.String
	}
	if platformDomain.Valid {
		profile.PlatformDomain = &platformDomain.String
	}
	if themeName.Valid {
		profile.Theme = &domain.CommerceTheme{Name: themeName.String, IsCustom: themeIsCustom}
		if themeVersion.Valid {
			profile.Theme.Version = &themeVersion.String
		}
	}
	if trustScore.Valid {
		profile.TrustScore = &trustScore.Float64
	}
	methodSet := make(domain.PaymentMethodSet, len(methods))
	for _, m := range methods {
		if method, err := domain.NewPaymentMethod(m); err == nil {
			methodSet[method] = struct{}{}
		}
	}
	profile.PaymentMethods = methodSet

	return profile, nil
}
