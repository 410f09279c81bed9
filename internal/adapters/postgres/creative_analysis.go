package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// CreativeAnalysisStore implements ports.CreativeAnalysisRepository using
// PostgreSQL.
type CreativeAnalysisStore struct {
	db *sql.DB
}

// NewCreativeAnalysisStore creates a new PostgreSQL-backed creative-analysis
// repository.
func NewCreativeAnalysisStore(db *sql.DB) *CreativeAnalysisStore {
	return &CreativeAnalysisStore{db: db}
}

// GetOrCreate returns the existing analysis for adID, computing and
// persisting one via compute if none exists yet (§4.7 idempotent-by-ad
// invariant).
func (s *CreativeAnalysisStore) GetOrCreate(ctx context.Context, adID string, compute func() domain.CreativeAnalysis) (domain.CreativeAnalysis, error) {
	existing, err := s.getByAdID(ctx, adID)
	if err == nil {
		return *existing, nil
	}
	if !platerrors.IsNotFound(err) {
		return domain.CreativeAnalysis{}, err
	}

	analysis := compute()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO creative_analyses (
			id, ad_id, score, style_tags, angle_tags, tone_tags, sentiment,
			analyzer_version, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (ad_id) DO NOTHING
	`,
		analysis.ID, analysis.AdID, analysis.Score, pq.Array(analysis.StyleTags),
		pq.Array(analysis.AngleTags), pq.Array(analysis.ToneTags), string(analysis.Sentiment),
		analysis.AnalyzerVersion, analysis.CreatedAt,
	)
	if err != nil {
		return domain.CreativeAnalysis{}, err
	}

	result, err := s.getByAdID(ctx, adID)
	if err != nil {
		return domain.CreativeAnalysis{}, err
	}
	return *result, nil
}

func (s *CreativeAnalysisStore) ListByPage(ctx context.Context, pageID string) ([]domain.CreativeAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ca.id, ca.ad_id, ca.score, ca.style_tags, ca.angle_tags, ca.tone_tags,
		       ca.sentiment, ca.analyzer_version, ca.created_at
		FROM creative_analyses ca
		JOIN ads a ON a.id = ca.ad_id
		WHERE a.page_id = $1
		ORDER BY ca.created_at ASC
	`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CreativeAnalysis
	for rows.Next() {
		analysis, err := scanCreativeAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis)
	}
	return out, rows.Err()
}

func (s *CreativeAnalysisStore) getByAdID(ctx context.Context, adID string) (*domain.CreativeAnalysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ad_id, score, style_tags, angle_tags, tone_tags, sentiment,
		       analyzer_version, created_at
		FROM creative_analyses WHERE ad_id = $1
	`, adID)
	analysis, err := scanCreativeAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("creative_analysis", adID)
		}
		return nil, err
	}
	return &analysis, nil
}

func scanCreativeAnalysis(scanner rowScanner) (domain.CreativeAnalysis, error) {
	var (
		id, adID, sentiment, analyzerVersion string
		score                                float64
		styleTags, angleTags, toneTags       pq.StringArray
		createdAt                            sql.NullTime
	)
	if err := scanner.Scan(&id, &adID, &score, &styleTags, &angleTags, &toneTags, &sentiment, &analyzerVersion, &createdAt); err != nil {
		return domain.CreativeAnalysis{}, err
	}
	return domain.CreativeAnalysis{
		ID:              id,
		AdID:            adID,
		Score:           score,
		StyleTags:       styleTags,
		AngleTags:       angleTags,
		ToneTags:        toneTags,
		Sentiment:       domain.Sentiment(sentiment),
		AnalyzerVersion: analyzerVersion,
		CreatedAt:       createdAt.Time,
	}, nil
}
