package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopsignal/platform/internal/domain"
)

// AlertStore implements ports.AlertRepository using PostgreSQL.
type AlertStore struct {
	db *sql.DB
}

// NewAlertStore creates a new PostgreSQL-backed alert repository.
func NewAlertStore(db *sql.DB) *AlertStore {
	return &AlertStore{db: db}
}

const insertAlertSQL = `
	INSERT INTO alerts (
		id, page_id, type, severity, message, old_score, new_score,
		old_tier, new_tier, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`

// CreateBatch inserts each alert with its own statement rather than one
// shared transaction: §4.8 requires that a persistence failure on one
// alert not abort the others, so one bad row must not roll back alerts
// already written in the same call. Every insert is attempted; the first
// error encountered is returned (for the caller to log) after all have
// run, not in place of the rest.
func (s *AlertStore) CreateBatch(ctx context.Context, alerts []domain.Alert) error {
	var firstErr error
	for _, alert := range alerts {
		var oldTier, newTier *string
		if alert.OldTier != nil {
			v := string(*alert.OldTier)
			oldTier = &v
		}
		if alert.NewTier != nil {
			v := string(*alert.NewTier)
			newTier = &v
		}
		if _, err := s.db.ExecContext(ctx, insertAlertSQL,
			alert.ID, alert.PageID, string(alert.Type), string(alert.Severity), alert.Message,
			alert.OldScore, alert.NewScore, oldTier, newTier, alert.CreatedAt,
		); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *AlertStore) ListRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx, alertSelectColumns+` FROM alerts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (s *AlertStore) ListByPage(ctx context.Context, pageID string, limit, offset int) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		alertSelectColumns+` FROM alerts WHERE page_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		pageID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (s *AlertStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE created_at >= $1`, since).Scan(&count)
	return count, err
}

const alertSelectColumns = `
	SELECT id, page_id, type, severity, message, old_score, new_score,
	       old_tier, new_tier, created_at
`

func scanAlerts(rows *sql.Rows) ([]domain.Alert, error) {
	var out []domain.Alert
	for rows.Next() {
		var (
			id, pageID, alertType, severity, message string
			oldScore, newScore                       sql.NullFloat64
			oldTier, newTier                         sql.NullString
			createdAt                                time.Time
		)
		if err := rows.Scan(&id, &pageID, &alertType, &severity, &message, &oldScore, &newScore, &oldTier, &newTier, &createdAt); err != nil {
			return nil, err
		}
		alert := domain.Alert{
			ID:        id,
			PageID:    pageID,
			Type:      domain.AlertType(alertType),
			Severity:  domain.AlertSeverity(severity),
			Message:   message,
			CreatedAt: createdAt,
		}
		if oldScore.Valid {
			alert.OldScore = &oldScore.Float64
		}
		if newScore.Valid {
			alert.NewScore = &newScore.Float64
		}
		if oldTier.Valid {
			tier := domain.Tier(oldTier.String)
			alert.OldTier = &tier
		}
		if newTier.Valid {
			tier := domain.Tier(newTier.String)
			alert.NewTier = &tier
		}
		out = append(out, alert)
	}
	return out, rows.Err()
}
