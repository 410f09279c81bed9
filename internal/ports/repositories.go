// Package ports declares the interfaces use cases depend on: repositories
// for each entity, the ads-library/scraper/sitemap clients, and the task
// dispatcher. Concrete adapters are injected at wiring time in cmd/*; tests
// inject in-memory fakes. No port here performs I/O itself — it only
// describes the shape of it.
package ports

import (
	"context"
	"time"

	"github.com/shopsignal/platform/internal/domain"
)

// PageRepository persists and queries Page entities.
type PageRepository interface {
	Create(ctx context.Context, page *domain.Page) error
	Update(ctx context.Context, page *domain.Page) error
	Get(ctx context.Context, id string) (*domain.Page, error)
	GetByDomain(ctx context.Context, host string) (*domain.Page, error)
	GetByAdvertiserID(ctx context.Context, advertiserID string) (*domain.Page, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Page, error)
	Ranked(ctx context.Context, criteria domain.RankingCriteria) (domain.RankedShopsResult, error)
	Top(ctx context.Context, limit int) ([]domain.RankedShop, error)
	Count(ctx context.Context) (int, error)
	CountWithScores(ctx context.Context) (int, error)
}

// AdRepository persists and queries Ad entities.
type AdRepository interface {
	UpsertBatch(ctx context.Context, ads []domain.Ad) error
	Get(ctx context.Context, id string) (*domain.Ad, error)
	GetByLibraryAdID(ctx context.Context, libraryAdID string) (*domain.Ad, error)
	ListByPage(ctx context.Context, pageID string) ([]domain.Ad, error)
	CountActiveByPage(ctx context.Context, pageID string) (int, error)
	CountTotalByPage(ctx context.Context, pageID string) (int, error)
}

// CommerceProfileRepository persists and queries CommerceProfile entities.
type CommerceProfileRepository interface {
	Upsert(ctx context.Context, profile *domain.CommerceProfile) error
	GetByPage(ctx context.Context, pageID string) (*domain.CommerceProfile, error)
}

// ScanRepository persists and queries Scan entities.
type ScanRepository interface {
	Create(ctx context.Context, scan *domain.Scan) error
	Update(ctx context.Context, scan *domain.Scan) error
	Get(ctx context.Context, id string) (*domain.Scan, error)
}

// KeywordRunRepository persists and queries KeywordRun entities.
type KeywordRunRepository interface {
	Create(ctx context.Context, run *domain.KeywordRun) error
	Update(ctx context.Context, run *domain.KeywordRun) error
	Get(ctx context.Context, id string) (*domain.KeywordRun, error)
}

// ShopScoreRepository persists score observations and reads the latest one.
type ShopScoreRepository interface {
	Create(ctx context.Context, score domain.ShopScore) error
	GetLatest(ctx context.Context, pageID string) (*domain.ShopScore, error)
}

// PageDailyMetricsRepository persists and queries metrics snapshots.
type PageDailyMetricsRepository interface {
	Upsert(ctx context.Context, metrics domain.PageDailyMetrics) error
	History(ctx context.Context, pageID string, from, to time.Time, limit int) (domain.PageMetricsHistoryResult, error)
	LatestSnapshotDate(ctx context.Context) (*time.Time, error)
	CountAll(ctx context.Context) (int, error)
	AllPageIDs(ctx context.Context) ([]string, error)
}

// CreativeAnalysisRepository persists and queries per-ad creative analyses.
type CreativeAnalysisRepository interface {
	GetOrCreate(ctx context.Context, adID string, compute func() domain.CreativeAnalysis) (domain.CreativeAnalysis, error)
	ListByPage(ctx context.Context, pageID string) ([]domain.CreativeAnalysis, error)
}

// AlertRepository persists and queries Alert events.
type AlertRepository interface {
	CreateBatch(ctx context.Context, alerts []domain.Alert) error
	ListRecent(ctx context.Context, limit int) ([]domain.Alert, error)
	ListByPage(ctx context.Context, pageID string, limit, offset int) ([]domain.Alert, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// WatchlistRepository persists and queries Watchlists and their items.
type WatchlistRepository interface {
	Create(ctx context.Context, watchlist *domain.Watchlist) error
	Update(ctx context.Context, watchlist *domain.Watchlist) error
	Get(ctx context.Context, id string) (*domain.Watchlist, error)
	Delete(ctx context.Context, id string) error
	AddItem(ctx context.Context, item *domain.WatchlistItem) error
	RemoveItem(ctx context.Context, watchlistID, pageID string) error
	ListItems(ctx context.Context, watchlistID string) ([]domain.WatchlistItem, error)
}

// ProductRepository persists and queries page-scoped products.
type ProductRepository interface {
	UpsertBatch(ctx context.Context, products []domain.Product) error
	ListByPage(ctx context.Context, pageID string, limit, offset int) ([]domain.Product, error)
	CountByPage(ctx context.Context, pageID string) (int, error)
}

// BlacklistRepository persists advertiser/domain exclusions. Keyword search
// (§4.2) consults IsBlacklisted per advertiser group before paging is
// created; the HTTP API exposes CRUD for operators maintaining the list.
type BlacklistRepository interface {
	IsBlacklisted(ctx context.Context, advertiserID string) (bool, error)
	Add(ctx context.Context, advertiserID, reason string, now time.Time) error
	Remove(ctx context.Context, advertiserID string) error
	List(ctx context.Context) ([]domain.BlacklistEntry, error)
}
