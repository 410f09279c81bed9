package domain

import "math"

// ScoringInput is the minimal page/ad view the scoring engine needs. It is
// built by the use-case layer from repository reads so this package stays
// free of I/O.
type ScoringInput struct {
	Ads              []Ad
	IsCommerce       bool
	Currency         *Currency
	ActiveAdsCount   int
	TotalAdsCount    int
	ProductCount     int
}

// ctaVocabulary is the closed set of call-to-action phrases the
// creative-quality sub-score and the creative-insight engine test ad copy
// against.
var ctaVocabulary = []string{
	"shop now", "buy now", "learn more", "sign up", "get offer",
	"order now", "add to cart", "see more", "apply now",
}

// ComputeScore runs the canonical scoring formula (§4.6) over in and
// returns the rounded overall score plus its named components.
func ComputeScore(in ScoringInput) (score float64, components map[string]float64) {
	adsActivity := adsActivityScore(in.Ads)
	commerce := commerceScore(in)
	creative := creativeQualityScore(in.Ads)
	catalog := catalogScore(in.ProductCount)

	raw := 0.4*adsActivity + 0.3*commerce + 0.2*creative + 0.1*catalog
	score = round2(clampScore(raw))

	components = map[string]float64{
		"ads_activity":     adsActivity,
		"commerce":         commerce,
		"creative_quality": creative,
		"catalog":          catalog,
	}
	return score, components
}

func adsActivityScore(ads []Ad) float64 {
	if len(ads) == 0 {
		return 0
	}
	countries := map[Country]struct{}{}
	platforms := map[AdPlatform]struct{}{}
	for _, ad := range ads {
		for _, c := range ad.Countries {
			countries[c] = struct{}{}
		}
		for _, p := range ad.Platforms {
			platforms[p] = struct{}{}
		}
	}
	volumeTerm := 0.6 * math.Min(float64(len(ads))/50, 1)
	countryTerm := 0.2 * math.Min(float64(len(countries))/5, 1)
	platformTerm := 0.2 * math.Min(float64(len(platforms))/3, 1)
	return clampScore(100 * (volumeTerm + countryTerm + platformTerm))
}

func commerceScore(in ScoringInput) float64 {
	score := 20.0
	if in.IsCommerce {
		score += 30
	}
	if in.Currency != nil && in.Currency.IsPreferredForScoring() {
		score += 20
	}
	if in.ActiveAdsCount > 0 {
		score += 20
	}
	if in.TotalAdsCount >= 10 {
		score += 10
	}
	return clampScore(score)
}

func creativeQualityScore(ads []Ad) float64 {
	if len(ads) == 0 {
		return 0
	}
	var anyText, anyDiscount, anyEmoji, anyCTAPhrase, anyCTAType bool
	for _, ad := range ads {
		text := ""
		if ad.Title != nil {
			text += *ad.Title
		}
		if ad.Body != nil {
			text += " " + *ad.Body
		}
		if text != "" {
			anyText = true
		}
		lowered := text
		if containsDiscountSignal(lowered) {
			anyDiscount = true
		}
		if containsEmoji(lowered) {
			anyEmoji = true
		}
		if containsCTAPhrase(lowered) {
			anyCTAPhrase = true
		}
		if ad.CTAType != nil && *ad.CTAType != "" {
			anyCTAType = true
		}
	}
	score := 0.0
	if anyText {
		score += 20
	}
	if anyDiscount {
		score += 20
	}
	if anyEmoji {
		score += 15
	}
	if anyCTAPhrase {
		score += 25
	}
	if anyCTAType {
		score += 20
	}
	return clampScore(score)
}

func catalogScore(productCount int) float64 {
	if productCount <= 0 {
		return 0
	}
	return clampScore(100 * math.Min(float64(productCount)/200, 1))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
