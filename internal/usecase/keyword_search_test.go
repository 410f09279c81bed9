package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/ports"
)

func setupKeywordSearch(t *testing.T, library *fakeAdsLibraryClient, blacklist func(string) bool) (*KeywordSearch, *fakePageRepository, *fakeAdRepository, *fakeKeywordRunRepository) {
	t.Helper()
	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	runs := newFakeKeywordRunRepository()
	pages := newFakePageRepository()
	ads := newFakeAdRepository()
	uc := NewKeywordSearch(runs, pages, ads, library, newFakeIDGenerator("kw"), clock, nil, blacklist)
	return uc, pages, ads, runs
}

// rawAd builds an active raw ad carrying the destination both as its link
// URL and as its link caption; the caption is what new-page URL extraction
// reads.
func rawAd(libID, advertiserID string, linkURLs []string) ports.RawAd {
	return ports.RawAd{LibraryAdID: libID, AdvertiserID: advertiserID, Status: "active", LinkURLs: linkURLs, LinkCaptions: linkURLs}
}

// Raw ads group by advertiser ID in first-seen order, a new page is created
// per distinct advertiser, and the page's ad-count summary reflects the
// group (§4.2 steps 2-4).
func TestKeywordSearchGroupsByAdvertiserAndCreatesNewPages(t *testing.T) {
	library := newFakeAdsLibraryClient()
	library.searchResults = []ports.RawAd{
		rawAd("lib-1", "adv-1", []string{"shop-a.example"}),
		rawAd("lib-2", "adv-2", []string{"shop-b.example"}),
		rawAd("lib-3", "adv-1", []string{"shop-a.example"}),
	}
	uc, pages, ads, runs := setupKeywordSearch(t, library, nil)

	fr, err := domain.NewCountry("FR")
	if err != nil {
		t.Fatalf("NewCountry: %v", err)
	}
	result, err := uc.Execute(context.Background(), "dress", fr, nil, 100)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.PageIDs) != 2 {
		t.Fatalf("expected 2 distinct pages (one per advertiser), got %d", len(result.PageIDs))
	}
	if result.NewPages != 2 {
		t.Fatalf("expected both pages to be new, got %d", result.NewPages)
	}
	if result.AdsCount != 3 {
		t.Fatalf("expected 3 total ads upserted, got %d", result.AdsCount)
	}
	adv1Page, err := pages.GetByAdvertiserID(context.Background(), "adv-1")
	if err != nil {
		t.Fatalf("GetByAdvertiserID: %v", err)
	}
	if adv1Page.TotalAdsCount != 2 {
		t.Fatalf("expected adv-1's page to report 2 total ads, got %d", adv1Page.TotalAdsCount)
	}
	if len(ads.pageOrder[adv1Page.ID]) != 2 {
		t.Fatalf("expected 2 ads upserted under adv-1's page, got %d", len(ads.pageOrder[adv1Page.ID]))
	}
	run, err := runs.Get(context.Background(), result.ScanID)
	if err != nil {
		t.Fatalf("Get run: %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Fatalf("expected the run to complete, got %v", run.Status)
	}
}

// A blacklisted advertiser is dropped before grouping and never produces a
// page or ad record (§4.2 step 1).
func TestKeywordSearchSkipsBlacklistedAdvertisers(t *testing.T) {
	library := newFakeAdsLibraryClient()
	library.searchResults = []ports.RawAd{
		rawAd("lib-1", "adv-blocked", []string{"shop-a.example"}),
		rawAd("lib-2", "adv-ok", []string{"shop-b.example"}),
	}
	blacklist := func(advertiserID string) bool { return advertiserID == "adv-blocked" }
	uc, pages, _, _ := setupKeywordSearch(t, library, blacklist)

	us, err := domain.NewCountry("US")
	if err != nil {
		t.Fatalf("NewCountry: %v", err)
	}
	result, err := uc.Execute(context.Background(), "dress", us, nil, 100)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.PageIDs) != 1 {
		t.Fatalf("expected only the non-blacklisted advertiser to produce a page, got %d", len(result.PageIDs))
	}
	if _, err := pages.GetByAdvertiserID(context.Background(), "adv-blocked"); err == nil {
		t.Fatalf("expected no page to exist for the blacklisted advertiser")
	}
}

// extractDestinationURL ranks survivors by frequency with first-seen ties;
// a rejected CTA phrase never becomes a candidate (§4.2.1).
func TestExtractDestinationURLRanksByFrequencyThenFirstSeen(t *testing.T) {
	group := []ports.RawAd{
		{LibraryAdID: "lib-1", LinkCaptions: []string{"shop now"}, LinkTitles: []string{"shop-a.example"}},
		{LibraryAdID: "lib-2", LinkCaptions: []string{"shop-b.example"}},
		{LibraryAdID: "lib-3", LinkCaptions: []string{"shop-b.example"}},
	}
	best, ok := extractDestinationURL(group)
	if !ok {
		t.Fatalf("expected a destination URL to be found")
	}
	if best != "https://shop-b.example" {
		t.Fatalf("expected the higher-frequency candidate to win, got %s", best)
	}
}
