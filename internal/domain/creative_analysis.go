package domain

import (
	"math"
	"strings"
	"time"
)

// Sentiment is the coarse polarity of an ad's copy.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

const creativeAnalyzerVersion = "v1"

// CreativeAnalysis is the idempotent, per-ad output of the creative-insight
// engine: one record per ad, keyed by AdID.
type CreativeAnalysis struct {
	ID              string
	AdID            string
	Score           float64
	StyleTags       []string
	AngleTags       []string
	ToneTags        []string
	Sentiment       Sentiment
	AnalyzerVersion string
	CreatedAt       time.Time
}

// styleDetectors map a style tag to the regex-ish substring rules that
// trigger it. Kept intentionally small and explainable.
var styleDetectors = map[string]func(string) bool{
	"minimalist":   func(t string) bool { return len(t) < 80 },
	"bold":         func(t string) bool { return strings.Contains(t, "!") },
	"storytelling": func(t string) bool { return len(t) > 250 },
	"direct":       func(t string) bool { return containsCTAPhrase(t) },
}

var angleDetectors = map[string]func(string) bool{
	"urgency":         func(t string) bool { return urgencyPattern.MatchString(t) },
	"social-proof":    func(t string) bool { return socialProofPattern.MatchString(t) },
	"benefit-driven":  func(t string) bool { return benefitPattern.MatchString(t) },
	"cta-driven":      func(t string) bool { return containsCTAPhrase(t) },
}

var toneDetectors = map[string]func(string) bool{
	"casual":       func(t string) bool { return containsEmoji(t) },
	"professional": func(t string) bool { return benefitPattern.MatchString(t) && !containsEmoji(t) },
	"emotional":    func(t string) bool { return emotionalPattern.MatchString(t) },
	"playful":      func(t string) bool { return containsEmoji(t) && strings.Contains(t, "!") },
}

// AnalyzeCreative runs the pure heuristic creative-insight scoring over
// text, which callers build as "title + body + cta_type" concatenated.
func AnalyzeCreative(id, adID, text string, now time.Time) CreativeAnalysis {
	lowered := strings.ToLower(text)

	score := lengthBonus(len(text))
	if hookPattern.MatchString(lowered) {
		score += 15
	}
	if benefitPattern.MatchString(lowered) {
		score += 15
	}
	if containsCTAPhrase(lowered) {
		score += 20
	}
	if socialProofPattern.MatchString(lowered) {
		score += 15
	}
	if emotionalPattern.MatchString(lowered) {
		score += 15
	}
	score = clampScore(score)

	var styles, angles, tones []string
	for tag, matches := range styleDetectors {
		if matches(lowered) {
			styles = append(styles, tag)
		}
	}
	for tag, matches := range angleDetectors {
		if matches(lowered) {
			angles = append(angles, tag)
		}
	}
	for tag, matches := range toneDetectors {
		if matches(lowered) {
			tones = append(tones, tag)
		}
	}

	return CreativeAnalysis{
		ID:              id,
		AdID:            adID,
		Score:           round2(score),
		StyleTags:       styles,
		AngleTags:       angles,
		ToneTags:        tones,
		Sentiment:       sentimentOf(lowered),
		AnalyzerVersion: creativeAnalyzerVersion,
		CreatedAt:       now,
	}
}

// lengthBonus peaks (15 points) for copy in the 100-300 character sweet
// spot and tapers linearly on either side, per §4.7.
func lengthBonus(length int) float64 {
	const (
		peakStart = 100
		peakEnd   = 300
		maxBonus  = 15.0
	)
	switch {
	case length < peakStart:
		return maxBonus * float64(length) / peakStart
	case length <= peakEnd:
		return maxBonus
	default:
		over := float64(length - peakEnd)
		return math.Max(0, maxBonus-over/20)
	}
}

func sentimentOf(lowered string) Sentiment {
	positive := countHits(lowered, positiveLexicon)
	negative := countHits(lowered, negativeLexicon)
	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func countHits(text string, lexicon []string) int {
	count := 0
	for _, word := range lexicon {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

// CreativeAggregate summarizes a page's creative analyses for the
// creative-insight use case's per-page rollup.
type CreativeAggregate struct {
	AverageScore float64
	BestScore    float64
	TopN         []CreativeAnalysis
	SentimentHistogram map[Sentiment]int
	CommonTags   []string
}

// AggregateCreative computes a page-level rollup over analyses. topN bounds
// the "best creatives" slice; minCount is the threshold a tag must clear
// across the top slice to be reported as "common".
func AggregateCreative(analyses []CreativeAnalysis, topN, minCount int) CreativeAggregate {
	if len(analyses) == 0 {
		return CreativeAggregate{SentimentHistogram: map[Sentiment]int{}}
	}

	sorted := make([]CreativeAnalysis, len(analyses))
	copy(sorted, analyses)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Score > sorted[j-1].Score; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	var sum float64
	histogram := map[Sentiment]int{}
	for _, a := range analyses {
		sum += a.Score
		histogram[a.Sentiment]++
	}

	if topN > len(sorted) {
		topN = len(sorted)
	}
	top := sorted[:topN]

	tagCounts := map[string]int{}
	for _, a := range top {
		for _, tag := range a.StyleTags {
			tagCounts[tag]++
		}
		for _, tag := range a.AngleTags {
			tagCounts[tag]++
		}
		for _, tag := range a.ToneTags {
			tagCounts[tag]++
		}
	}
	var common []string
	for tag, count := range tagCounts {
		if count >= minCount {
			common = append(common, tag)
		}
	}

	return CreativeAggregate{
		AverageScore:       round2(sum / float64(len(analyses))),
		BestScore:          sorted[0].Score,
		TopN:               top,
		SentimentHistogram: histogram,
		CommonTags:         common,
	}
}
