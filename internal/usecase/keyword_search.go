package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/ports"
)

// KeywordSearchResult is the contract result of KeywordSearch.Execute (§4.2).
type KeywordSearchResult struct {
	PageIDs  []string
	AdsCount int
	ScanID   string
	NewPages int
}

// KeywordSearch implements the keyword-search use case: stream raw ads from
// the ads library, group by advertiser, upsert pages and ads.
type KeywordSearch struct {
	runs       ports.KeywordRunRepository
	pages      ports.PageRepository
	ads        ports.AdRepository
	library    ports.AdsLibraryClient
	ids        ports.IDGenerator
	clock      ports.Clock
	log        *logging.Logger
	blacklist  func(advertiserID string) bool
}

// NewKeywordSearch wires a KeywordSearch use case. blacklist reports whether
// an advertiser ID should be skipped entirely.
func NewKeywordSearch(
	runs ports.KeywordRunRepository,
	pages ports.PageRepository,
	ads ports.AdRepository,
	library ports.AdsLibraryClient,
	ids ports.IDGenerator,
	clock ports.Clock,
	log *logging.Logger,
	blacklist func(advertiserID string) bool,
) *KeywordSearch {
	return &KeywordSearch{runs: runs, pages: pages, ads: ads, library: library, ids: ids, clock: clock, log: log, blacklist: blacklist}
}

const defaultKeywordSearchLimit = 1000

// Execute runs one keyword search end to end, per §4.2's algorithm.
func (uc *KeywordSearch) Execute(ctx context.Context, keyword string, country domain.Country, language *domain.Language, limit int) (KeywordSearchResult, error) {
	validKeyword, err := domain.NewKeyword(keyword)
	if err != nil {
		return KeywordSearchResult{}, errors.Validation("keyword", err.Error())
	}
	if limit <= 0 {
		limit = defaultKeywordSearchLimit
	}

	now := uc.clock.Now()
	run := domain.NewKeywordRun(uc.ids.NewID(), validKeyword, country, limit, 0, now)
	if err := uc.runs.Create(ctx, run); err != nil {
		return KeywordSearchResult{}, errors.Repository("create_keyword_run", err)
	}
	run.Start(now)
	if err := uc.runs.Update(ctx, run); err != nil {
		return KeywordSearchResult{}, errors.Repository("start_keyword_run", err)
	}

	groups := map[string][]ports.RawAd{}
	var ordered []string
	fetchErr := uc.library.SearchByKeyword(ctx, ports.AdsLibrarySearchParams{
		Keyword:  validKeyword,
		Country:  country,
		Language: language,
		Limit:    limit,
	}, func(raw ports.RawAd) error {
		if uc.blacklist != nil && uc.blacklist(raw.AdvertiserID) {
			return nil
		}
		if _, ok := groups[raw.AdvertiserID]; !ok {
			ordered = append(ordered, raw.AdvertiserID)
		}
		groups[raw.AdvertiserID] = append(groups[raw.AdvertiserID], raw)
		return nil
	})
	if fetchErr != nil {
		msg := fetchErr.Error()
		run.Fail(msg, uc.clock.Now())
		_ = uc.runs.Update(ctx, run)
		return KeywordSearchResult{}, fetchErr
	}

	var pageIDs []string
	totalAds, newPages, adsProcessed := 0, 0, 0

	for _, advertiserID := range ordered {
		group := groups[advertiserID]
		page, err := uc.pages.GetByAdvertiserID(ctx, advertiserID)
		isNew := false
		if err != nil {
			destination, found := extractDestinationURL(group)
			if !found {
				continue
			}
			url, urlErr := domain.NewURL(destination)
			if urlErr != nil {
				continue
			}
			page = domain.NewPage(uc.ids.NewID(), advertiserID, url, &country, nil, now)
			isNew = true
		}

		adEntities := convertRawAds(page.ID, group, uc.ids, uc.log)
		if len(adEntities) == 0 {
			continue
		}
		if err := uc.ads.UpsertBatch(ctx, adEntities); err != nil {
			run.Fail(err.Error(), uc.clock.Now())
			_ = uc.runs.Update(ctx, run)
			return KeywordSearchResult{}, errors.Repository("upsert_ads", err)
		}

		active, total := countAdsByStatus(adEntities)
		page.UpdateAdsCount(active, total, now)
		if isNew {
			if err := uc.pages.Create(ctx, page); err != nil {
				run.Fail(err.Error(), uc.clock.Now())
				_ = uc.runs.Update(ctx, run)
				return KeywordSearchResult{}, errors.Repository("create_page", err)
			}
			newPages++
		} else if err := uc.pages.Update(ctx, page); err != nil {
			run.Fail(err.Error(), uc.clock.Now())
			_ = uc.runs.Update(ctx, run)
			return KeywordSearchResult{}, errors.Repository("update_page", err)
		}

		pageIDs = append(pageIDs, page.ID)
		totalAds += len(adEntities)
		adsProcessed += len(group)
	}

	run.Complete(domain.KeywordRunResult{
		TotalAdsFound:    totalAds,
		UniquePagesFound: len(pageIDs),
		NewPagesFound:    newPages,
		AdsProcessed:     adsProcessed,
	}, uc.clock.Now())
	if err := uc.runs.Update(ctx, run); err != nil {
		return KeywordSearchResult{}, errors.Repository("complete_keyword_run", err)
	}

	return KeywordSearchResult{
		PageIDs:  pageIDs,
		AdsCount: totalAds,
		ScanID:   run.ID,
		NewPages: newPages,
	}, nil
}

func countAdsByStatus(ads []domain.Ad) (active, total int) {
	for _, ad := range ads {
		total++
		if ad.Status == domain.AdActive {
			active++
		}
	}
	return active, total
}

// rejectedCTAPhrases is the closed vocabulary of localized CTA phrases that
// can never be a destination URL candidate (§4.2.1).
var rejectedCTAPhrases = map[string]bool{
	"shop now": true, "learn more": true, "sign up": true,
	"achetez maintenant": true, "en savoir plus": true, "inscrivez-vous": true,
}

var hostPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}(/.*)?$`)

// extractDestinationURL implements the §4.2.1 tie-break: scan captions,
// titles, descriptions, then advertiser name; rank survivors by frequency,
// ties broken by first-seen order.
func extractDestinationURL(group []ports.RawAd) (string, bool) {
	var candidates []string
	for _, ad := range group {
		candidates = append(candidates, firstOf(ad.LinkCaptions), firstOf(ad.LinkTitles), firstOf(ad.LinkDescriptions), ad.AdvertiserName)
	}

	counts := map[string]int{}
	var order []string
	for _, raw := range candidates {
		normalized, ok := normalizeURLCandidate(raw)
		if !ok {
			continue
		}
		if _, seen := counts[normalized]; !seen {
			order = append(order, normalized)
		}
		counts[normalized]++
	}

	best := ""
	bestCount := 0
	for _, candidate := range order {
		if counts[candidate] > bestCount {
			best = candidate
			bestCount = counts[candidate]
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func normalizeURLCandidate(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if rejectedCTAPhrases[strings.ToLower(trimmed)] {
		return "", false
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if u, err := domain.NewURL(trimmed); err == nil {
			scheme := "https://"
			if !u.IsHTTPS() {
				scheme = "http://"
			}
			return scheme + u.Domain(), true
		}
		return "", false
	}
	if hostPattern.MatchString(trimmed) {
		return "https://" + trimmed, true
	}
	return "", false
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// convertRawAds converts the raw ads-library shape into domain Ad entities
// per §4.2.2: a single bad record is logged and skipped, never aborting
// the batch.
func convertRawAds(pageID string, raws []ports.RawAd, ids ports.IDGenerator, log *logging.Logger) []domain.Ad {
	var out []domain.Ad
	seen := map[string]bool{}
	for _, raw := range raws {
		if raw.LibraryAdID == "" || seen[raw.LibraryAdID] {
			continue
		}
		seen[raw.LibraryAdID] = true

		ad := domain.Ad{
			ID:           ids.NewID(),
			PageID:       pageID,
			AdvertiserID: raw.AdvertiserID,
			LibraryAdID:  raw.LibraryAdID,
			Status:       mapAdStatus(raw.Status),
		}
		if title := firstOf(raw.Title); title != "" {
			ad.Title = &title
		}
		if body := firstOf(raw.Body); body != "" {
			ad.Body = &body
		}
		if link := firstOf(raw.LinkURLs); link != "" {
			if normalized, ok := normalizeLink(link); ok {
				ad.LinkURL = normalized
			}
		}
		for _, platform := range raw.Platforms {
			ad.Platforms = append(ad.Platforms, mapPlatform(platform))
		}
		for _, code := range raw.Countries {
			if c, err := domain.NewCountry(code); err == nil {
				ad.Countries = append(ad.Countries, c)
			}
		}
		if raw.CTAType != "" {
			cta := raw.CTAType
			ad.CTAType = &cta
		}
		out = append(out, ad)
	}
	return out
}

func normalizeLink(raw string) (*domain.URL, bool) {
	candidate := raw
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "https://" + candidate
	}
	u, err := domain.NewURL(candidate)
	if err != nil {
		return nil, false
	}
	return &u, true
}

func mapAdStatus(raw string) domain.AdStatus {
	switch strings.ToLower(raw) {
	case "active":
		return domain.AdActive
	case "inactive":
		return domain.AdInactive
	default:
		return domain.AdUnknown
	}
}

func mapPlatform(raw string) domain.AdPlatform {
	switch strings.ToLower(raw) {
	case "facebook":
		return domain.PlatformFacebook
	case "instagram":
		return domain.PlatformInstagram
	case "messenger":
		return domain.PlatformMessenger
	case "audience_network":
		return domain.PlatformAudienceNetwork
	default:
		return domain.PlatformUnknown
	}
}
