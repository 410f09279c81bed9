package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/shopsignal/platform/internal/domain"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

// ScanStore implements ports.ScanRepository using PostgreSQL.
type ScanStore struct {
	db *sql.DB
}

// NewScanStore creates a new PostgreSQL-backed scan repository.
func NewScanStore(db *sql.DB) *ScanStore {
	return &ScanStore{db: db}
}

func (s *ScanStore) Create(ctx context.Context, scan *domain.Scan) error {
	result, err := marshalScanResult(scan.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scans (
			id, page_id, type, status, result, priority, retry_count, max_retries,
			error_message, started_at, completed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		scan.ID, scan.PageID, string(scan.Type), string(scan.Status), result, scan.Priority,
		scan.RetryCount, scan.MaxRetries, scan.ErrorMessage, scan.StartedAt, scan.CompletedAt,
		scan.CreatedAt, scan.UpdatedAt,
	)
	return err
}

func (s *ScanStore) Update(ctx context.Context, scan *domain.Scan) error {
	result, err := marshalScanResult(scan.Result)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE scans SET
			status = $1, result = $2, retry_count = $3, error_message = $4,
			started_at = $5, completed_at = $6, updated_at = $7
		WHERE id = $8
	`,
		string(scan.Status), result, scan.RetryCount, scan.ErrorMessage,
		scan.StartedAt, scan.CompletedAt, scan.UpdatedAt, scan.ID,
	)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return platerrors.NotFound("scan", scan.ID)
	}
	return nil
}

func (s *ScanStore) Get(ctx context.Context, id string) (*domain.Scan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, page_id, type, status, result, priority, retry_count, max_retries,
		       error_message, started_at, completed_at, created_at, updated_at
		FROM scans WHERE id = $1
	`, id)

	var (
		scanID, pageID, scanType, status string
		result                           []byte
		priority, retryCount, maxRetries int
		errorMessage                     sql.NullString
		startedAt, completedAt           sql.NullTime
		createdAt, updatedAt             sql.NullTime
	)
	if err := row.Scan(
		&scanID, &pageID, &scanType, &status, &result, &priority, &retryCount, &maxRetries,
		&errorMessage, &startedAt, &completedAt, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("scan", id)
		}
		return nil, err
	}

	scanResult, err := unmarshalScanResult(result)
	if err != nil {
		return nil, err
	}

	scan := &domain.Scan{
		ID:         scanID,
		PageID:     pageID,
		Type:       domain.ScanType(scanType),
		Status:     domain.RunStatus(status),
		Result:     scanResult,
		Priority:   priority,
		RetryCount: retryCount,
		MaxRetries: maxRetries,
		CreatedAt:  createdAt.Time,
		UpdatedAt:  updatedAt.Time,
	}
	if errorMessage.Valid {
		scan.ErrorMessage = &errorMessage.String
	}
	if startedAt.Valid {
		scan.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		scan.CompletedAt = &completedAt.Time
	}
	return scan, nil
}

func marshalScanResult(result *domain.ScanResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	return json.Marshal(result)
}

func unmarshalScanResult(raw []byte) (*domain.ScanResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var result domain.ScanResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// KeywordRunStore implements ports.KeywordRunRepository using PostgreSQL.
type KeywordRunStore struct {
	db *sql.DB
}

// NewKeywordRunStore creates a new PostgreSQL-backed keyword-run repository.
func NewKeywordRunStore(db *sql.DB) *KeywordRunStore {
	return &KeywordRunStore{db: db}
}

func (s *KeywordRunStore) Create(ctx context.Context, run *domain.KeywordRun) error {
	result, err := marshalKeywordRunResult(run.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO keyword_runs (
			id, keyword, country, status, result, page_limit, pages_fetched,
			priority, retry_count, max_retries, error_message, started_at,
			completed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		run.ID, run.Keyword, string(run.Country), string(run.Status), result, run.PageLimit,
		run.PagesFetched, run.Priority, run.RetryCount, run.MaxRetries, run.ErrorMessage,
		run.StartedAt, run.CompletedAt, run.CreatedAt, run.UpdatedAt,
	)
	return err
}

func (s *KeywordRunStore) Update(ctx context.Context, run *domain.KeywordRun) error {
	result, err := marshalKeywordRunResult(run.Result)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE keyword_runs SET
			status = $1, result = $2, pages_fetched = $3, retry_count = $4,
			error_message = $5, started_at = $6, completed_at = $7, updated_at = $8
		WHERE id = $9
	`,
		string(run.Status), result, run.PagesFetched, run.RetryCount, run.ErrorMessage,
		run.StartedAt, run.CompletedAt, run.UpdatedAt, run.ID,
	)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return platerrors.NotFound("keyword_run", run.ID)
	}
	return nil
}

func (s *KeywordRunStore) Get(ctx context.Context, id string) (*domain.KeywordRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, keyword, country, status, result, page_limit, pages_fetched,
		       priority, retry_count, max_retries, error_message, started_at,
		       completed_at, created_at, updated_at
		FROM keyword_runs WHERE id = $1
	`, id)

	var (
		runID, keyword, country, status     string
		result                              []byte
		pageLimit, pagesFetched             int
		priority, retryCount, maxRetries    int
		errorMessage                        sql.NullString
		startedAt, completedAt              sql.NullTime
		createdAt, updatedAt                sql.NullTime
	)
	if err := row.Scan(
		&runID, &keyword, &country, &status, &result, &pageLimit, &pagesFetched,
		&priority, &retryCount, &maxRetries, &errorMessage, &startedAt, &completedAt,
		&createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, platerrors.NotFound("keyword_run", id)
		}
		return nil, err
	}

	runResult, err := unmarshalKeywordRunResult(result)
	if err != nil {
		return nil, err
	}

	run := &domain.KeywordRun{
		ID:           runID,
		Keyword:      keyword,
		Country:      domain.Country(country),
		Status:       domain.RunStatus(status),
		Result:       runResult,
		PageLimit:    pageLimit,
		PagesFetched: pagesFetched,
		Priority:     priority,
		RetryCount:   retryCount,
		MaxRetries:   maxRetries,
		CreatedAt:    createdAt.Time,
		UpdatedAt:    updatedAt.Time,
	}
	if errorMessage.Valid {
		run.ErrorMessage = &errorMessage.String
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

func marshalKeywordRunResult(result *domain.KeywordRunResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	return json.Marshal(result)
}

func unmarshalKeywordRunResult(raw []byte) (*domain.KeywordRunResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var result domain.KeywordRunResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
