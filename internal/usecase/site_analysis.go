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

// SiteAnalysisResult is the contract result of SiteAnalysis.Execute (§4.4).
type SiteAnalysisResult struct {
	IsCommerce              bool
	ShopName                *string
	Theme                   *string
	Currency                *string
	Category                *string
	PaymentMethods          []domain.PaymentMethod
	CatalogSizingDispatched bool
}

// SiteAnalysis implements the commerce-platform detection use case: fetch
// HTML, test header and body signals, and on a positive match extract the
// storefront fingerprint and enqueue catalog sizing.
type SiteAnalysis struct {
	pages    ports.PageRepository
	profiles ports.CommerceProfileRepository
	fetcher  ports.HTMLFetcher
	tasks    ports.TaskDispatcher
	ids      ports.IDGenerator
	clock    ports.Clock
	log      *logging.Logger
}

// NewSiteAnalysis wires a SiteAnalysis use case.
func NewSiteAnalysis(pages ports.PageRepository, profiles ports.CommerceProfileRepository, fetcher ports.HTMLFetcher, tasks ports.TaskDispatcher, ids ports.IDGenerator, clock ports.Clock, log *logging.Logger) *SiteAnalysis {
	return &SiteAnalysis{pages: pages, profiles: profiles, fetcher: fetcher, tasks: tasks, ids: ids, clock: clock, log: log}
}

// platformHeaderSignals maps a header name to a substring that, if found in
// its value (case-insensitive), short-circuits body scanning as a positive
// commerce-platform signal.
var platformHeaderSignals = map[string]string{
	"server":               "cloudplatform-storefront",
	"x-storefront-renderer": "",
	"x-commerce-platform":  "",
}

// platformBodySignals are regexes over the raw HTML body; any match is a
// positive commerce-platform signal.
var platformBodySignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cdn\.storefront-assets\.`),
	regexp.MustCompile(`(?i)window\.__STOREFRONT_CONTEXT__`),
	regexp.MustCompile(`(?i)class="(?:[^"]*\s)?storefront-`),
	regexp.MustCompile(`(?i)Powered by [A-Za-z]+ Commerce`),
}

var (
	shopNameOGPattern      = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:site_name["'][^>]+content=["']([^"']+)["']`)
	shopNameAppNamePattern = regexp.MustCompile(`(?i)<meta[^>]+name=["']application-name["'][^>]+content=["']([^"']+)["']`)
	shopNameJSONPattern    = regexp.MustCompile(`"shop_name"\s*:\s*"([^"]+)"`)
	shopNameTitlePattern   = regexp.MustCompile(`(?i)<title>([^<]+)</title>`)

	themeGlobalPattern = regexp.MustCompile(`(?i)window\.theme\s*=\s*\{[^}]*"name"\s*:\s*"([^"]+)"`)
	themeClassPattern  = regexp.MustCompile(`(?i)class="(?:[^"]*\s)?theme-([a-z0-9_-]+)`)
	themeAttrPattern   = regexp.MustCompile(`(?i)data-theme=["']([^"']+)["']`)

	currencyJSONPattern = regexp.MustCompile(`"currency(?:_code)?"\s*:\s*"([A-Z]{3})"`)
	currencyAttrPattern = regexp.MustCompile(`(?i)data-currency=["']([A-Z]{3})["']`)
	currencyVarPattern  = regexp.MustCompile(`(?i)Shopify\.currency\s*=\s*\{\s*"active"\s*:\s*"([A-Z]{3})"`)
)

// paymentMethodAliases maps each known payment method to the alias patterns
// that, lowercased, identify it in HTML (§4.4: "first alias match records
// the method").
var paymentMethodAliases = map[domain.PaymentMethod][]string{
	domain.PaymentCreditCard:   {"visa", "mastercard", "credit card"},
	domain.PaymentPayPal:       {"paypal"},
	domain.PaymentApplePay:     {"apple pay", "apple-pay"},
	domain.PaymentGooglePay:    {"google pay", "google-pay"},
	domain.PaymentShopPay:      {"shop pay", "shop-pay"},
	domain.PaymentKlarna:       {"klarna"},
	domain.PaymentAfterpay:     {"afterpay", "after pay"},
	domain.PaymentAffirm:       {"affirm"},
	domain.PaymentBankTransfer: {"bank transfer", "wire transfer"},
	domain.PaymentCOD:          {"cash on delivery", "cod"},
	domain.PaymentCrypto:       {"bitcoin", "crypto", "coinbase commerce"},
	domain.PaymentIdeal:        {"ideal"},
	domain.PaymentSofort:       {"sofort"},
	domain.PaymentBancontact:   {"bancontact"},
	domain.PaymentGiropay:      {"giropay"},
	domain.PaymentEPS:          {"eps"},
	domain.PaymentPrzelewy24:   {"przelewy24"},
	domain.PaymentAlipay:       {"alipay"},
	domain.PaymentWeChatPay:    {"wechat pay", "wechat-pay"},
}

// paymentMethodOrder fixes evaluation order so detection is deterministic.
var paymentMethodOrder = []domain.PaymentMethod{
	domain.PaymentCreditCard, domain.PaymentPayPal, domain.PaymentApplePay,
	domain.PaymentGooglePay, domain.PaymentShopPay, domain.PaymentKlarna,
	domain.PaymentAfterpay, domain.PaymentAffirm, domain.PaymentBankTransfer,
	domain.PaymentCOD, domain.PaymentCrypto, domain.PaymentIdeal,
	domain.PaymentSofort, domain.PaymentBancontact, domain.PaymentGiropay,
	domain.PaymentEPS, domain.PaymentPrzelewy24, domain.PaymentAlipay,
	domain.PaymentWeChatPay,
}

// categoryPatterns counts regex hits per category over the document; the
// category with the most non-zero hits wins (§4.4).
var categoryPatterns = map[domain.Category][]*regexp.Regexp{
	"fashion":       {regexp.MustCompile(`(?i)\b(dress|apparel|clothing|fashion|outfit)\b`)},
	"beauty":        {regexp.MustCompile(`(?i)\b(skincare|cosmetic|makeup|beauty)\b`)},
	"electronics":   {regexp.MustCompile(`(?i)\b(electronics|gadget|charger|headphone)\b`)},
	"home":          {regexp.MustCompile(`(?i)\b(furniture|home decor|kitchenware|home goods)\b`)},
	"fitness":       {regexp.MustCompile(`(?i)\b(fitness|workout|supplement|gym)\b`)},
	"jewelry":       {regexp.MustCompile(`(?i)\b(jewelry|necklace|bracelet|earring)\b`)},
	"pets":          {regexp.MustCompile(`(?i)\b(pet supplies|dog toy|cat food|pet care)\b`)},
	"toys_and_kids": {regexp.MustCompile(`(?i)\b(toy|kids wear|baby gear|nursery)\b`)},
}

// Execute runs site analysis of one page, per §4.4's algorithm.
func (uc *SiteAnalysis) Execute(ctx context.Context, pageID string, url domain.URL) (SiteAnalysisResult, error) {
	page, err := uc.pages.Get(ctx, pageID)
	if err != nil {
		return SiteAnalysisResult{}, errors.NotFound("page", pageID)
	}

	body, headers, _, err := uc.fetcher.FetchHTML(ctx, url)
	if err != nil {
		return SiteAnalysisResult{}, err
	}

	now := uc.clock.Now()
	isCommerce := headerSignalsMatch(headers) || bodySignalsMatch(body)

	if !isCommerce {
		if err := page.MarkNotCommerce(now); err != nil {
			return SiteAnalysisResult{}, errors.Validation("page_state", err.Error())
		}
		if err := uc.pages.Update(ctx, page); err != nil {
			return SiteAnalysisResult{}, errors.Repository("update_page", err)
		}
		return SiteAnalysisResult{IsCommerce: false}, nil
	}

	profile := domain.NewCommerceProfile(uc.ids.NewID(), pageID, now)

	shopName := extractShopName(body, url)
	profile.ShopName = &shopName

	var themePtr *string
	if theme, ok := extractTheme(body); ok {
		profile.Theme = &domain.CommerceTheme{Name: theme}
		themePtr = &theme
	}

	var currencyPtr *string
	var currencyValue *domain.Currency
	if raw, ok := extractCurrency(body); ok {
		if c, err := domain.NewCurrency(raw); err == nil {
			currencyValue = &c
			s := string(c)
			currencyPtr = &s
		}
	}

	methods := detectPaymentMethods(body)
	profile.SetPaymentMethods(domain.NewPaymentMethodSet(methods...), now)

	var categoryPtr *string
	var categoryValue *domain.Category
	if cat, ok := detectCategory(body); ok {
		if c, err := domain.NewCategory(string(cat)); err == nil {
			categoryValue = &c
			s := string(c)
			categoryPtr = &s
		}
	}

	if err := uc.profiles.Upsert(ctx, profile); err != nil {
		return SiteAnalysisResult{}, errors.Repository("upsert_commerce_profile", err)
	}

	if err := page.MarkVerifiedCommerce(profile.ID, now); err != nil {
		return SiteAnalysisResult{}, errors.Validation("page_state", err.Error())
	}
	if currencyValue != nil {
		page.Currency = currencyValue
	}
	if categoryValue != nil {
		page.Category = categoryValue
	}
	if err := uc.pages.Update(ctx, page); err != nil {
		return SiteAnalysisResult{}, errors.Repository("update_page", err)
	}

	dispatched := false
	if err := uc.tasks.Enqueue(ctx, ports.Task{
		Kind: ports.TaskCatalogSizing,
		Payload: map[string]any{
			"page_id": pageID,
			"url":     url.String(),
		},
	}); err != nil {
		if uc.log != nil {
			uc.log.Warn(ctx, "catalog_sizing dispatch failed", map[string]interface{}{"page_id": pageID, "error": err.Error()})
		}
	} else {
		dispatched = true
	}

	return SiteAnalysisResult{
		IsCommerce:              true,
		ShopName:                &shopName,
		Theme:                   themePtr,
		Currency:                currencyPtr,
		Category:                categoryPtr,
		PaymentMethods:          methods,
		CatalogSizingDispatched: dispatched,
	}, nil
}

func headerSignalsMatch(headers map[string]string) bool {
	for name, substr := range platformHeaderSignals {
		value, ok := headers[name]
		if !ok {
			continue
		}
		if substr == "" {
			return true
		}
		if strings.Contains(strings.ToLower(value), substr) {
			return true
		}
	}
	return false
}

func bodySignalsMatch(body string) bool {
	for _, pattern := range platformBodySignals {
		if pattern.MatchString(body) {
			return true
		}
	}
	return false
}

// extractShopName follows the §4.4 priority: og:site_name, application-name
// meta, in-page JSON shop_name, <title>, falling back to the URL's domain.
func extractShopName(body string, url domain.URL) string {
	for _, pattern := range []*regexp.Regexp{shopNameOGPattern, shopNameAppNamePattern, shopNameJSONPattern, shopNameTitlePattern} {
		if m := pattern.FindStringSubmatch(body); len(m) == 2 {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}
	return url.Domain()
}

func extractTheme(body string) (string, bool) {
	for _, pattern := range []*regexp.Regexp{themeGlobalPattern, themeClassPattern, themeAttrPattern} {
		if m := pattern.FindStringSubmatch(body); len(m) == 2 {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

func extractCurrency(body string) (string, bool) {
	for _, pattern := range []*regexp.Regexp{currencyJSONPattern, currencyVarPattern, currencyAttrPattern} {
		if m := pattern.FindStringSubmatch(body); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

func detectPaymentMethods(body string) []domain.PaymentMethod {
	lower := strings.ToLower(body)
	var out []domain.PaymentMethod
	for _, method := range paymentMethodOrder {
		for _, alias := range paymentMethodAliases[method] {
			if strings.Contains(lower, alias) {
				out = append(out, method)
				break
			}
		}
	}
	return out
}

// categoryOrder fixes the comparison order over categoryPatterns so ties
// between categories with equal non-zero hit counts resolve the same way
// on every run, instead of depending on Go's randomized map iteration.
var categoryOrder = sortedCategoryKeys(categoryPatterns)

func sortedCategoryKeys(m map[domain.Category][]*regexp.Regexp) []domain.Category {
	keys := make([]domain.Category, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func detectCategory(body string) (domain.Category, bool) {
	best := domain.Category("")
	bestCount := 0
	for _, category := range categoryOrder {
		count := 0
		for _, pattern := range categoryPatterns[category] {
			count += len(pattern.FindAllStringIndex(body, -1))
		}
		if count > bestCount {
			best = category
			bestCount = count
		}
	}
	if bestCount == 0 {
		return "", false
	}
	return best, true
}
