package domain

import "time"

// ScanType is the kind of analysis a Scan performs.
type ScanType string

const (
	ScanFull            ScanType = "full"
	ScanAdsOnly         ScanType = "ads_only"
	ScanPlatformDetect  ScanType = "platform_detect"
	ScanSitemap         ScanType = "sitemap"
	ScanProfileUpdate   ScanType = "profile"
	ScanQuick           ScanType = "quick"
)

// RunStatus is the shared lifecycle shape of Scan and KeywordRun (§4.11).
type RunStatus string

const (
	RunPending     RunStatus = "pending"
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
	RunCancelled   RunStatus = "cancelled"
	RunTimeout     RunStatus = "timeout"
	RunRateLimited RunStatus = "rate_limited"
)

const defaultMaxRetries = 3

// ScanResult carries the outcome of a completed Scan.
type ScanResult struct {
	AdsFound       int
	NewAds         int
	ProductsFound  int
	IsCommerce     *bool
	Errors         []string
	Warnings       []string
	Metadata       map[string]any
}

// HasErrors reports whether the result recorded any errors.
func (r ScanResult) HasErrors() bool { return len(r.Errors) > 0 }

// Scan is one unit of analysis work performed on a Page.
type Scan struct {
	ID           string
	PageID       string
	Type         ScanType
	Status       RunStatus
	Result       *ScanResult
	Priority     int
	RetryCount   int
	MaxRetries   int
	ErrorMessage *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewScan constructs a pending scan for pageID.
func NewScan(id, pageID string, scanType ScanType, priority int, now time.Time) *Scan {
	return &Scan{
		ID:         id,
		PageID:     pageID,
		Type:       scanType,
		Status:     RunPending,
		Priority:   priority,
		MaxRetries: defaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Start transitions the scan to running.
func (s *Scan) Start(now time.Time) {
	s.Status = RunRunning
	s.ErrorMessage = nil
	s.StartedAt = &now
	s.CompletedAt = nil
	s.UpdatedAt = now
}

// Complete records a successful result.
func (s *Scan) Complete(result ScanResult, now time.Time) {
	s.Status = RunCompleted
	s.Result = &result
	s.ErrorMessage = nil
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// Fail records a terminal error.
func (s *Scan) Fail(message string, now time.Time) {
	s.Status = RunFailed
	s.ErrorMessage = &message
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// Timeout records that the scan exceeded its deadline.
func (s *Scan) Timeout(now time.Time) {
	msg := "scan timed out"
	s.Status = RunTimeout
	s.ErrorMessage = &msg
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// Cancel marks the scan cancelled.
func (s *Scan) Cancel(now time.Time) {
	s.Status = RunCancelled
	s.ErrorMessage = nil
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// CanRetry reports whether the scan is retryable and has budget left.
func (s *Scan) CanRetry() bool {
	return (s.Status == RunFailed || s.Status == RunTimeout) && s.RetryCount < s.MaxRetries
}

// Retry resets the scan to pending with an incremented retry counter.
func (s *Scan) Retry(now time.Time) {
	s.Status = RunPending
	s.Result = nil
	s.ErrorMessage = nil
	s.StartedAt = nil
	s.CompletedAt = nil
	s.RetryCount++
	s.UpdatedAt = now
}

// IsTerminal reports whether the scan is done and not retryable.
func (s *Scan) IsTerminal() bool {
	switch s.Status {
	case RunCompleted, RunCancelled, RunFailed, RunTimeout:
		return !s.CanRetry()
	default:
		return false
	}
}

// DurationSeconds returns elapsed time since start, or nil if not started.
func (s *Scan) DurationSeconds(now time.Time) *float64 {
	if s.StartedAt == nil {
		return nil
	}
	end := now
	if s.CompletedAt != nil {
		end = *s.CompletedAt
	}
	seconds := end.Sub(*s.StartedAt).Seconds()
	return &seconds
}

// KeywordRunResult carries the outcome of a completed KeywordRun.
type KeywordRunResult struct {
	TotalAdsFound    int
	UniquePagesFound int
	NewPagesFound    int
	AdsProcessed     int
	Errors           []string
}

// HasResults reports whether any ads were found.
func (r KeywordRunResult) HasResults() bool { return r.TotalAdsFound > 0 }

// KeywordRun is one keyword-search invocation against the ads library.
type KeywordRun struct {
	ID           string
	Keyword      string
	Country      Country
	Status       RunStatus
	Result       *KeywordRunResult
	PageLimit    int
	PagesFetched int
	Priority     int
	RetryCount   int
	MaxRetries   int
	ErrorMessage *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewKeywordRun constructs a pending keyword run; keyword must already be
// non-empty after trimming (use case validates with ErrInvalidKeyword).
func NewKeywordRun(id, keyword string, country Country, pageLimit, priority int, now time.Time) *KeywordRun {
	return &KeywordRun{
		ID:         id,
		Keyword:    keyword,
		Country:    country,
		Status:     RunPending,
		PageLimit:  pageLimit,
		Priority:   priority,
		MaxRetries: defaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Start transitions the run to running.
func (r *KeywordRun) Start(now time.Time) {
	r.Status = RunRunning
	r.Result = nil
	r.PagesFetched = 0
	r.ErrorMessage = nil
	r.StartedAt = &now
	r.CompletedAt = nil
	r.UpdatedAt = now
}

// UpdateProgress records how many pages have been fetched so far.
func (r *KeywordRun) UpdateProgress(pagesFetched int, now time.Time) {
	r.PagesFetched = pagesFetched
	r.UpdatedAt = now
}

// Complete records a successful result.
func (r *KeywordRun) Complete(result KeywordRunResult, now time.Time) {
	r.Status = RunCompleted
	r.Result = &result
	r.ErrorMessage = nil
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// Fail records a terminal error.
func (r *KeywordRun) Fail(message string, now time.Time) {
	r.Status = RunFailed
	r.ErrorMessage = &message
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// RateLimit records that the ads-library rejected the run with repeated 429s.
func (r *KeywordRun) RateLimit(now time.Time) {
	msg := "rate limit exceeded"
	r.Status = RunRateLimited
	r.ErrorMessage = &msg
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// Cancel marks the run cancelled.
func (r *KeywordRun) Cancel(now time.Time) {
	r.Status = RunCancelled
	r.ErrorMessage = nil
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// CanRetry reports whether the run is retryable and has budget left.
func (r *KeywordRun) CanRetry() bool {
	return (r.Status == RunFailed || r.Status == RunRateLimited) && r.RetryCount < r.MaxRetries
}

// Retry resets the run to pending with an incremented retry counter.
func (r *KeywordRun) Retry(now time.Time) {
	r.Status = RunPending
	r.Result = nil
	r.PagesFetched = 0
	r.ErrorMessage = nil
	r.StartedAt = nil
	r.CompletedAt = nil
	r.RetryCount++
	r.UpdatedAt = now
}

// ProgressPercentage returns fetch progress as a 0-100 percentage.
func (r *KeywordRun) ProgressPercentage() float64 {
	if r.PageLimit == 0 {
		return 0
	}
	return (float64(r.PagesFetched) / float64(r.PageLimit)) * 100
}

// DurationSeconds returns elapsed time since start, or nil if not started.
func (r *KeywordRun) DurationSeconds(now time.Time) *float64 {
	if r.StartedAt == nil {
		return nil
	}
	end := now
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	seconds := end.Sub(*r.StartedAt).Seconds()
	return &seconds
}
