package ports

import (
	"context"
	"time"

	"github.com/shopsignal/platform/internal/domain"
)

// RawAd is the ads-library wire shape, decoded leniently (§9's "dynamic
// JSON payloads" note): unknown/missing fields default rather than error.
type RawAd struct {
	LibraryAdID      string
	AdvertiserID     string
	AdvertiserName   string
	Title            []string
	Body             []string
	LinkURLs         []string
	LinkCaptions     []string
	LinkTitles       []string
	LinkDescriptions []string
	ImageURLs        []string
	VideoURLs        []string
	CTAType          string
	Status           string
	Platforms        []string
	Countries        []string
	StartedAt        *time.Time
	EndedAt          *time.Time
	ImpressionsLow   *int64
	ImpressionsHigh  *int64
	SpendLow         *float64
	SpendHigh        *float64
	Currency         string
}

// AdsLibrarySearchParams is the semantic surface of the outbound
// ads-library wire protocol (§6).
type AdsLibrarySearchParams struct {
	Keyword       string
	PageIDs       []string
	Country       domain.Country
	Language      *domain.Language
	Limit         int
}

// AdsLibraryClient is the capability set {search_ads_by_keyword,
// get_ads_by_page, get_ads_details} (§9).
type AdsLibraryClient interface {
	// SearchByKeyword streams raw ads across every paginated response,
	// following paging.next internally, invoking yield for each ad.
	// Stops and returns yield's error, if any.
	SearchByKeyword(ctx context.Context, params AdsLibrarySearchParams, yield func(RawAd) error) error

	// GetByPage fetches detailed ads for a single advertiser page.
	GetByPage(ctx context.Context, advertiserID string, country domain.Country) ([]RawAd, error)
}

// HTMLFetcher is the capability set {fetch_html, fetch_headers} (§9).
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, url domain.URL) (body string, headers map[string]string, statusCode int, err error)
	FetchHeaders(ctx context.Context, url domain.URL) (headers map[string]string, statusCode int, err error)
}

// SitemapURL is one parsed sitemap entry, either a child sitemap (index)
// or a page URL (urlset).
type SitemapURL struct {
	Loc string
}

// SitemapFetcher is the capability set {get_sitemap_urls,
// extract_product_count} (§9).
type SitemapFetcher interface {
	// FetchSitemap retrieves and parses one sitemap document, returning
	// whether it was an index (child sitemaps) or a urlset (page URLs).
	FetchSitemap(ctx context.Context, sitemapURL string) (isIndex bool, urls []SitemapURL, err error)
}

// TaskKind names the background task types the dispatcher can enqueue.
type TaskKind string

const (
	TaskScanPage         TaskKind = "scan_page"
	TaskSiteAnalysis     TaskKind = "analyse_website"
	TaskCatalogSizing    TaskKind = "count_sitemap_products"
	TaskComputeShopScore TaskKind = "compute_shop_score"
	TaskAnalyzeCreatives TaskKind = "analyze_creatives_for_page"
	TaskSnapshotMetrics  TaskKind = "snapshot_daily_metrics"
)

// Task is one unit of dispatchable work.
type Task struct {
	Kind    TaskKind
	Payload map[string]any
}

// TaskDispatcher enqueues background work onto the durable task queue.
type TaskDispatcher interface {
	Enqueue(ctx context.Context, task Task) error
}

// ClaimedTask is one task handed to a worker, along with the token it must
// present to Ack or Requeue it.
type ClaimedTask struct {
	Task  Task
	Token string
}

// TaskQueue is the worker-side complement of TaskDispatcher: claim one task
// at a time, acknowledge on success, or requeue on failure so another
// worker (or the visibility-timeout reaper) can retry it (§ "Queue
// protocol").
type TaskQueue interface {
	// Claim blocks until a task is available or ctx is done, moving it into
	// an in-flight set so a crashed worker's claim can be recovered by the
	// reaper once its visibility timeout elapses.
	Claim(ctx context.Context) (*ClaimedTask, error)
	Ack(ctx context.Context, token string) error
	Requeue(ctx context.Context, token string) error
	// ReapExpired requeues in-flight tasks whose visibility timeout has
	// elapsed, returning how many were recovered.
	ReapExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

// IDGenerator produces new entity identifiers. Injected so use cases stay
// deterministic under test.
type IDGenerator interface {
	NewID() string
}

// Clock supplies the current time. Injected so use cases stay deterministic
// under test.
type Clock interface {
	Now() time.Time
}
