package usecase

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/ports"
)

// CatalogSizingResult is the contract result of CatalogSizing.Execute (§4.5).
type CatalogSizingResult struct {
	ProductCount  int
	SitemapsFound int
	PreviousCount int
}

// CatalogSizing implements the sitemap-probing catalog-size estimation use
// case: discover sitemaps, count product-pattern URLs, filter by locale.
type CatalogSizing struct {
	pages   ports.PageRepository
	sitemap ports.SitemapFetcher
	clock   ports.Clock
	log     *logging.Logger
}

// NewCatalogSizing wires a CatalogSizing use case.
func NewCatalogSizing(pages ports.PageRepository, sitemap ports.SitemapFetcher, clock ports.Clock, log *logging.Logger) *CatalogSizing {
	return &CatalogSizing{pages: pages, sitemap: sitemap, clock: clock, log: log}
}

// sitemapProbePaths are tried in order at the host root; the first that
// parses successfully is used (§4.5 step 2).
var sitemapProbePaths = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemaps.xml"}

// productSitemapPattern matches child-sitemap filenames dedicated to
// products, e.g. sitemap_products_en-us_1.xml, sitemap_products.xml.
var productSitemapPattern = regexp.MustCompile(`(?i)sitemap[_-]products?(?:[_-]([a-z]{2}(?:-[a-z]{2})?))?(?:[_-](\d+))?\.xml`)

// productURLPattern matches page-URL paths that look like product pages.
var productURLPattern = regexp.MustCompile(`(?i)/(products?|p|shop)/`)

// localeIndicatorPattern extracts a locale token from a URL path segment,
// e.g. /en-us/products/..., /fr/products/....
var localeIndicatorPattern = regexp.MustCompile(`(?i)/([a-z]{2}-[a-z]{2}|[a-z]{2})/`)

// knownLocaleIndicators is the closed set of locale tokens recognised in
// sitemap URLs (§4.5 step 6); anything outside this set is not treated as
// a locale indicator at all, so its URLs always count.
var knownLocaleIndicators = map[string]string{
	"en": "US", "en-us": "US", "en-gb": "GB", "fr": "FR", "fr-fr": "FR",
	"de": "DE", "de-de": "DE", "es": "ES", "es-es": "ES", "it": "IT",
	"nl": "NL", "pt": "PT", "pt-br": "BR", "ca": "CA", "au": "AU",
}

// Execute discovers and counts the catalog size for one page, per §4.5's
// algorithm.
func (uc *CatalogSizing) Execute(ctx context.Context, pageID string, websiteURL domain.URL, country domain.Country) (CatalogSizingResult, error) {
	page, err := uc.pages.Get(ctx, pageID)
	if err != nil {
		return CatalogSizingResult{}, errors.NotFound("page", pageID)
	}
	previousCount := page.ProductCount

	root := "https://" + websiteURL.Domain()
	var rootURLs []string
	var rootIsIndex bool
	found := false
	for _, path := range sitemapProbePaths {
		isIndex, urls, err := uc.sitemap.FetchSitemap(ctx, root+path)
		if err != nil {
			continue
		}
		found = true
		rootIsIndex = isIndex
		for _, u := range urls {
			rootURLs = append(rootURLs, u.Loc)
		}
		break
	}

	if !found {
		if err := page.UpdateProductCount(0, uc.clock.Now()); err != nil {
			return CatalogSizingResult{}, errors.Validation("product_count", err.Error())
		}
		if err := uc.pages.Update(ctx, page); err != nil {
			return CatalogSizingResult{}, errors.Repository("update_page", err)
		}
		return CatalogSizingResult{ProductCount: 0, SitemapsFound: 0, PreviousCount: previousCount}, nil
	}

	var childSitemaps []string
	if rootIsIndex {
		childSitemaps = append(childSitemaps, rootURLs...)
	}
	childSitemaps = reorderBySpecificity(childSitemaps)

	var allURLs []string
	sitemapsFound := 0
	if !rootIsIndex {
		allURLs = append(allURLs, rootURLs...)
		sitemapsFound = 1
	}
	for _, child := range childSitemaps {
		isIndex, urls, err := uc.sitemap.FetchSitemap(ctx, child)
		if err != nil {
			if uc.log != nil {
				uc.log.Warn(ctx, "sitemap parse failed", map[string]interface{}{"page_id": pageID, "sitemap": child, "error": err.Error()})
			}
			continue
		}
		sitemapsFound++
		if isIndex {
			continue
		}
		for _, u := range urls {
			allURLs = append(allURLs, u.Loc)
		}
	}

	count := countProductURLs(allURLs, country)

	if err := page.UpdateProductCount(count, uc.clock.Now()); err != nil {
		return CatalogSizingResult{}, errors.Validation("product_count", err.Error())
	}
	if err := uc.pages.Update(ctx, page); err != nil {
		return CatalogSizingResult{}, errors.Repository("update_page", err)
	}

	return CatalogSizingResult{
		ProductCount:  count,
		SitemapsFound: sitemapsFound,
		PreviousCount: previousCount,
	}, nil
}

// reorderBySpecificity moves sitemaps matching the product pattern to the
// front, most specific (locale- and page-numbered) first (§4.5 step 4).
func reorderBySpecificity(sitemaps []string) []string {
	type scored struct {
		url   string
		score int
	}
	items := make([]scored, len(sitemaps))
	for i, s := range sitemaps {
		items[i] = scored{url: s, score: specificityScore(s)}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.url
	}
	return out
}

func specificityScore(url string) int {
	m := productSitemapPattern.FindStringSubmatch(url)
	if m == nil {
		return 0
	}
	score := 1
	if m[1] != "" {
		score += 1
	}
	if m[2] != "" {
		score += 1
	}
	return score
}

// countProductURLs counts URLs matching the product-URL pattern, applying
// the locale filter (§4.5 step 6).
func countProductURLs(urls []string, country domain.Country) int {
	count := 0
	requested := strings.ToUpper(string(country))
	for _, u := range urls {
		if !productURLPattern.MatchString(u) {
			continue
		}
		if locale, ok := localeFrom(u); ok {
			if locale != requested {
				continue
			}
		}
		count++
	}
	return count
}

// localeFrom extracts a recognised locale indicator from a URL, if any.
func localeFrom(url string) (string, bool) {
	m := localeIndicatorPattern.FindStringSubmatch(strings.ToLower(url))
	if len(m) != 2 {
		return "", false
	}
	country, ok := knownLocaleIndicators[m[1]]
	if !ok {
		return "", false
	}
	return country, true
}
