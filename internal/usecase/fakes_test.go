package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/ports"
)

// This file collects in-memory fakes satisfying every port interface, used
// across the usecase package's test files instead of a real database,
// HTTP client, or task queue.

// fakeClock returns a fixed, settable instant.
type fakeClock struct{ t time.Time }

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }
func (c *fakeClock) Now() time.Time      { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeIDGenerator produces predictable, sequential IDs.
type fakeIDGenerator struct {
	prefix string
	n      int
}

func newFakeIDGenerator(prefix string) *fakeIDGenerator { return &fakeIDGenerator{prefix: prefix} }
func (g *fakeIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// fakePageRepository is an in-memory ports.PageRepository.
type fakePageRepository struct {
	pages        map[string]*domain.Page
	order        []string
	byDomain     map[string]string
	byAdvertiser map[string]string
}

func newFakePageRepository() *fakePageRepository {
	return &fakePageRepository{
		pages:        map[string]*domain.Page{},
		byDomain:     map[string]string{},
		byAdvertiser: map[string]string{},
	}
}

func (r *fakePageRepository) Create(ctx context.Context, page *domain.Page) error {
	if _, ok := r.pages[page.ID]; !ok {
		r.order = append(r.order, page.ID)
	}
	r.pages[page.ID] = page
	r.byDomain[page.Domain] = page.ID
	r.byAdvertiser[page.AdvertiserID] = page.ID
	return nil
}

func (r *fakePageRepository) Update(ctx context.Context, page *domain.Page) error {
	if _, ok := r.pages[page.ID]; !ok {
		return fmt.Errorf("page %s not found", page.ID)
	}
	r.pages[page.ID] = page
	return nil
}

func (r *fakePageRepository) Get(ctx context.Context, id string) (*domain.Page, error) {
	page, ok := r.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s not found", id)
	}
	return page, nil
}

func (r *fakePageRepository) GetByDomain(ctx context.Context, host string) (*domain.Page, error) {
	id, ok := r.byDomain[host]
	if !ok {
		return nil, fmt.Errorf("page for domain %s not found", host)
	}
	return r.pages[id], nil
}

func (r *fakePageRepository) GetByAdvertiserID(ctx context.Context, advertiserID string) (*domain.Page, error) {
	id, ok := r.byAdvertiser[advertiserID]
	if !ok {
		return nil, fmt.Errorf("page for advertiser %s not found", advertiserID)
	}
	return r.pages[id], nil
}

func (r *fakePageRepository) List(ctx context.Context, limit, offset int) ([]*domain.Page, error) {
	var out []*domain.Page
	for i, id := range r.order {
		if i < offset {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, r.pages[id])
	}
	return out, nil
}

func (r *fakePageRepository) Ranked(ctx context.Context, criteria domain.RankingCriteria) (domain.RankedShopsResult, error) {
	var matched []*domain.Page
	for _, id := range r.order {
		page := r.pages[id]
		if criteria.Tier != nil {
			if lo, hi, ok := criteria.Tier.TierScoreRange(); ok {
				if page.Score < lo || page.Score > hi {
					continue
				}
			}
		}
		if criteria.MinScore != nil && page.Score < *criteria.MinScore {
			continue
		}
		if criteria.Country != nil {
			if page.Country == nil || *page.Country != *criteria.Country {
				continue
			}
		}
		matched = append(matched, page)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Score > matched[j].Score })

	total := len(matched)
	var page []*domain.Page
	if criteria.Offset < total {
		end := criteria.Offset + criteria.Limit
		if end > total {
			end = total
		}
		page = matched[criteria.Offset:end]
	}

	shops := make([]domain.RankedShop, 0, len(page))
	for _, p := range page {
		shops = append(shops, domain.RankedShop{
			PageID:  p.ID,
			Score:   p.Score,
			Tier:    domain.ScoreToTier(p.Score),
			URL:     &p.URL,
			Country: p.Country,
		})
	}
	return domain.NewRankedShopsResult(shops, total, criteria.Offset), nil
}

func (r *fakePageRepository) Top(ctx context.Context, limit int) ([]domain.RankedShop, error) {
	result, err := r.Ranked(ctx, domain.RankingCriteria{Limit: limit, Offset: 0})
	if err != nil {
		return nil, err
	}
	return result.Shops, nil
}

func (r *fakePageRepository) Count(ctx context.Context) (int, error) { return len(r.pages), nil }

func (r *fakePageRepository) CountWithScores(ctx context.Context) (int, error) {
	count := 0
	for _, p := range r.pages {
		if p.Score > 0 {
			count++
		}
	}
	return count, nil
}

// fakeAdRepository is an in-memory ports.AdRepository.
type fakeAdRepository struct {
	ads        map[string]domain.Ad
	byLibID    map[string]string
	pageOrder  map[string][]string
}

func newFakeAdRepository() *fakeAdRepository {
	return &fakeAdRepository{ads: map[string]domain.Ad{}, byLibID: map[string]string{}, pageOrder: map[string][]string{}}
}

func (r *fakeAdRepository) UpsertBatch(ctx context.Context, ads []domain.Ad) error {
	for _, ad := range ads {
		if _, exists := r.ads[ad.ID]; !exists {
			r.pageOrder[ad.PageID] = append(r.pageOrder[ad.PageID], ad.ID)
		}
		r.ads[ad.ID] = ad
		r.byLibID[ad.LibraryAdID] = ad.ID
	}
	return nil
}

func (r *fakeAdRepository) Get(ctx context.Context, id string) (*domain.Ad, error) {
	ad, ok := r.ads[id]
	if !ok {
		return nil, fmt.Errorf("ad %s not found", id)
	}
	return &ad, nil
}

func (r *fakeAdRepository) GetByLibraryAdID(ctx context.Context, libraryAdID string) (*domain.Ad, error) {
	id, ok := r.byLibID[libraryAdID]
	if !ok {
		return nil, fmt.Errorf("ad with library id %s not found", libraryAdID)
	}
	return r.Get(ctx, id)
}

func (r *fakeAdRepository) ListByPage(ctx context.Context, pageID string) ([]domain.Ad, error) {
	var out []domain.Ad
	for _, id := range r.pageOrder[pageID] {
		out = append(out, r.ads[id])
	}
	return out, nil
}

func (r *fakeAdRepository) CountActiveByPage(ctx context.Context, pageID string) (int, error) {
	count := 0
	for _, id := range r.pageOrder[pageID] {
		if r.ads[id].Status == domain.AdActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeAdRepository) CountTotalByPage(ctx context.Context, pageID string) (int, error) {
	return len(r.pageOrder[pageID]), nil
}

// fakeCommerceProfileRepository is an in-memory ports.CommerceProfileRepository.
type fakeCommerceProfileRepository struct {
	byPage map[string]*domain.CommerceProfile
}

func newFakeCommerceProfileRepository() *fakeCommerceProfileRepository {
	return &fakeCommerceProfileRepository{byPage: map[string]*domain.CommerceProfile{}}
}

func (r *fakeCommerceProfileRepository) Upsert(ctx context.Context, profile *domain.CommerceProfile) error {
	r.byPage[profile.PageID] = profile
	return nil
}

func (r *fakeCommerceProfileRepository) GetByPage(ctx context.Context, pageID string) (*domain.CommerceProfile, error) {
	p, ok := r.byPage[pageID]
	if !ok {
		return nil, fmt.Errorf("profile for page %s not found", pageID)
	}
	return p, nil
}

// fakeScanRepository is an in-memory ports.ScanRepository.
type fakeScanRepository struct{ scans map[string]*domain.Scan }

func newFakeScanRepository() *fakeScanRepository { return &fakeScanRepository{scans: map[string]*domain.Scan{}} }

func (r *fakeScanRepository) Create(ctx context.Context, scan *domain.Scan) error {
	r.scans[scan.ID] = scan
	return nil
}
func (r *fakeScanRepository) Update(ctx context.Context, scan *domain.Scan) error {
	r.scans[scan.ID] = scan
	return nil
}
func (r *fakeScanRepository) Get(ctx context.Context, id string) (*domain.Scan, error) {
	s, ok := r.scans[id]
	if !ok {
		return nil, fmt.Errorf("scan %s not found", id)
	}
	return s, nil
}

// fakeKeywordRunRepository is an in-memory ports.KeywordRunRepository.
type fakeKeywordRunRepository struct{ runs map[string]*domain.KeywordRun }

func newFakeKeywordRunRepository() *fakeKeywordRunRepository {
	return &fakeKeywordRunRepository{runs: map[string]*domain.KeywordRun{}}
}

func (r *fakeKeywordRunRepository) Create(ctx context.Context, run *domain.KeywordRun) error {
	r.runs[run.ID] = run
	return nil
}
func (r *fakeKeywordRunRepository) Update(ctx context.Context, run *domain.KeywordRun) error {
	r.runs[run.ID] = run
	return nil
}
func (r *fakeKeywordRunRepository) Get(ctx context.Context, id string) (*domain.KeywordRun, error) {
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("keyword run %s not found", id)
	}
	return run, nil
}

// fakeShopScoreRepository is an in-memory ports.ShopScoreRepository.
type fakeShopScoreRepository struct {
	byPage map[string][]domain.ShopScore
}

func newFakeShopScoreRepository() *fakeShopScoreRepository {
	return &fakeShopScoreRepository{byPage: map[string][]domain.ShopScore{}}
}

func (r *fakeShopScoreRepository) Create(ctx context.Context, score domain.ShopScore) error {
	r.byPage[score.PageID] = append(r.byPage[score.PageID], score)
	return nil
}

func (r *fakeShopScoreRepository) GetLatest(ctx context.Context, pageID string) (*domain.ShopScore, error) {
	scores := r.byPage[pageID]
	if len(scores) == 0 {
		return nil, nil
	}
	latest := scores[len(scores)-1]
	return &latest, nil
}

// fakePageDailyMetricsRepository is an in-memory ports.PageDailyMetricsRepository.
type fakePageDailyMetricsRepository struct {
	snapshots    map[string]domain.PageDailyMetrics // key: pageID|date
	configuredIDs []string
}

func newFakePageDailyMetricsRepository(pageIDs ...string) *fakePageDailyMetricsRepository {
	return &fakePageDailyMetricsRepository{snapshots: map[string]domain.PageDailyMetrics{}, configuredIDs: pageIDs}
}

func metricsKey(pageID string, date time.Time) string {
	return pageID + "|" + date.Format("2006-01-02")
}

func (r *fakePageDailyMetricsRepository) Upsert(ctx context.Context, metrics domain.PageDailyMetrics) error {
	r.snapshots[metricsKey(metrics.PageID, metrics.Date)] = metrics
	return nil
}

func (r *fakePageDailyMetricsRepository) History(ctx context.Context, pageID string, from, to time.Time, limit int) (domain.PageMetricsHistoryResult, error) {
	var matched []domain.PageDailyMetrics
	for _, s := range r.snapshots {
		if s.PageID != pageID {
			continue
		}
		if s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return domain.PageMetricsHistoryResult{Snapshots: matched}, nil
}

func (r *fakePageDailyMetricsRepository) LatestSnapshotDate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	for _, s := range r.snapshots {
		d := s.Date
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest, nil
}

func (r *fakePageDailyMetricsRepository) CountAll(ctx context.Context) (int, error) {
	return len(r.snapshots), nil
}

func (r *fakePageDailyMetricsRepository) AllPageIDs(ctx context.Context) ([]string, error) {
	return r.configuredIDs, nil
}

// fakeCreativeAnalysisRepository is an in-memory ports.CreativeAnalysisRepository.
type fakeCreativeAnalysisRepository struct {
	byAd map[string]domain.CreativeAnalysis
}

func newFakeCreativeAnalysisRepository() *fakeCreativeAnalysisRepository {
	return &fakeCreativeAnalysisRepository{byAd: map[string]domain.CreativeAnalysis{}}
}

func (r *fakeCreativeAnalysisRepository) GetOrCreate(ctx context.Context, adID string, compute func() domain.CreativeAnalysis) (domain.CreativeAnalysis, error) {
	if existing, ok := r.byAd[adID]; ok {
		return existing, nil
	}
	created := compute()
	r.byAd[adID] = created
	return created, nil
}

func (r *fakeCreativeAnalysisRepository) ListByPage(ctx context.Context, pageID string) ([]domain.CreativeAnalysis, error) {
	var out []domain.CreativeAnalysis
	for _, a := range r.byAd {
		out = append(out, a)
	}
	return out, nil
}

// fakeAlertRepository is an in-memory ports.AlertRepository, with an
// optional injected failure for exercising the persistence-failure path.
type fakeAlertRepository struct {
	stored  []domain.Alert
	failErr error
	batches int
}

func newFakeAlertRepository() *fakeAlertRepository { return &fakeAlertRepository{} }

func (r *fakeAlertRepository) CreateBatch(ctx context.Context, alerts []domain.Alert) error {
	r.batches++
	if r.failErr != nil {
		return r.failErr
	}
	r.stored = append(r.stored, alerts...)
	return nil
}

func (r *fakeAlertRepository) ListRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit > len(r.stored) {
		limit = len(r.stored)
	}
	return r.stored[:limit], nil
}

func (r *fakeAlertRepository) ListByPage(ctx context.Context, pageID string, limit, offset int) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, a := range r.stored {
		if a.PageID == pageID {
			out = append(out, a)
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAlertRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	count := 0
	for _, a := range r.stored {
		if a.CreatedAt.After(since) || a.CreatedAt.Equal(since) {
			count++
		}
	}
	return count, nil
}

// fakeWatchlistRepository is an in-memory ports.WatchlistRepository.
type fakeWatchlistRepository struct {
	watchlists map[string]*domain.Watchlist
	items      map[string][]domain.WatchlistItem
}

func newFakeWatchlistRepository() *fakeWatchlistRepository {
	return &fakeWatchlistRepository{watchlists: map[string]*domain.Watchlist{}, items: map[string][]domain.WatchlistItem{}}
}

func (r *fakeWatchlistRepository) Create(ctx context.Context, watchlist *domain.Watchlist) error {
	r.watchlists[watchlist.ID] = watchlist
	return nil
}
func (r *fakeWatchlistRepository) Update(ctx context.Context, watchlist *domain.Watchlist) error {
	r.watchlists[watchlist.ID] = watchlist
	return nil
}
func (r *fakeWatchlistRepository) Get(ctx context.Context, id string) (*domain.Watchlist, error) {
	w, ok := r.watchlists[id]
	if !ok {
		return nil, fmt.Errorf("watchlist %s not found", id)
	}
	return w, nil
}
func (r *fakeWatchlistRepository) Delete(ctx context.Context, id string) error {
	delete(r.watchlists, id)
	delete(r.items, id)
	return nil
}
func (r *fakeWatchlistRepository) AddItem(ctx context.Context, item *domain.WatchlistItem) error {
	r.items[item.WatchlistID] = append(r.items[item.WatchlistID], *item)
	return nil
}
func (r *fakeWatchlistRepository) RemoveItem(ctx context.Context, watchlistID, pageID string) error {
	var kept []domain.WatchlistItem
	for _, item := range r.items[watchlistID] {
		if item.PageID != pageID {
			kept = append(kept, item)
		}
	}
	r.items[watchlistID] = kept
	return nil
}
func (r *fakeWatchlistRepository) ListItems(ctx context.Context, watchlistID string) ([]domain.WatchlistItem, error) {
	return r.items[watchlistID], nil
}

// fakeAdsLibraryClient is an in-memory ports.AdsLibraryClient.
type fakeAdsLibraryClient struct {
	searchResults []ports.RawAd
	searchErr     error
	byPage        map[string][]ports.RawAd
	byPageErr     error
}

func newFakeAdsLibraryClient() *fakeAdsLibraryClient {
	return &fakeAdsLibraryClient{byPage: map[string][]ports.RawAd{}}
}

func (c *fakeAdsLibraryClient) SearchByKeyword(ctx context.Context, params ports.AdsLibrarySearchParams, yield func(ports.RawAd) error) error {
	for _, raw := range c.searchResults {
		if err := yield(raw); err != nil {
			return err
		}
	}
	return c.searchErr
}

func (c *fakeAdsLibraryClient) GetByPage(ctx context.Context, advertiserID string, country domain.Country) ([]ports.RawAd, error) {
	if c.byPageErr != nil {
		return nil, c.byPageErr
	}
	return c.byPage[advertiserID], nil
}

// fakeHTMLFetcher is an in-memory ports.HTMLFetcher.
type fakeHTMLFetcher struct {
	body       string
	headers    map[string]string
	statusCode int
	err        error
}

func (f *fakeHTMLFetcher) FetchHTML(ctx context.Context, url domain.URL) (string, map[string]string, int, error) {
	return f.body, f.headers, f.statusCode, f.err
}

func (f *fakeHTMLFetcher) FetchHeaders(ctx context.Context, url domain.URL) (map[string]string, int, error) {
	return f.headers, f.statusCode, f.err
}

// sitemapResponse is one configured fakeSitemapFetcher entry.
type sitemapResponse struct {
	isIndex bool
	urls    []ports.SitemapURL
	err     error
}

// fakeSitemapFetcher is an in-memory ports.SitemapFetcher keyed by exact URL.
type fakeSitemapFetcher struct {
	responses map[string]sitemapResponse
}

func newFakeSitemapFetcher() *fakeSitemapFetcher {
	return &fakeSitemapFetcher{responses: map[string]sitemapResponse{}}
}

func (f *fakeSitemapFetcher) FetchSitemap(ctx context.Context, sitemapURL string) (bool, []ports.SitemapURL, error) {
	resp, ok := f.responses[sitemapURL]
	if !ok {
		return false, nil, fmt.Errorf("no sitemap configured for %s", sitemapURL)
	}
	return resp.isIndex, resp.urls, resp.err
}

// fakeTaskDispatcher is an in-memory ports.TaskDispatcher.
type fakeTaskDispatcher struct {
	enqueued []ports.Task
	failKind map[ports.TaskKind]bool
}

func newFakeTaskDispatcher() *fakeTaskDispatcher {
	return &fakeTaskDispatcher{failKind: map[ports.TaskKind]bool{}}
}

func (d *fakeTaskDispatcher) Enqueue(ctx context.Context, task ports.Task) error {
	if d.failKind[task.Kind] {
		return fmt.Errorf("dispatch of %s failed", task.Kind)
	}
	d.enqueued = append(d.enqueued, task)
	return nil
}
