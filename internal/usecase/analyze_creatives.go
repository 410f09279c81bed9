package usecase

import (
	"context"
	"strings"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/ports"
)

// AnalyzeCreativesResult is the contract result of AnalyzeCreatives.Execute
// (§4.7), one creative analysis per ad plus the page-level aggregate.
type AnalyzeCreativesResult struct {
	Analyses  []domain.CreativeAnalysis
	Aggregate domain.CreativeAggregate
}

const (
	defaultCreativeTopN     = 10
	defaultCreativeMinCount = 2
)

// AnalyzeCreatives implements the creative-insight orchestration use case:
// run the heuristic scorer over every ad on a page, idempotently by ad ID,
// and roll the results up into a page-level aggregate.
type AnalyzeCreatives struct {
	ads       ports.AdRepository
	creatives ports.CreativeAnalysisRepository
	ids       ports.IDGenerator
	clock     ports.Clock
	log       *logging.Logger
}

// NewAnalyzeCreatives wires an AnalyzeCreatives use case.
func NewAnalyzeCreatives(ads ports.AdRepository, creatives ports.CreativeAnalysisRepository, ids ports.IDGenerator, clock ports.Clock, log *logging.Logger) *AnalyzeCreatives {
	return &AnalyzeCreatives{ads: ads, creatives: creatives, ids: ids, clock: clock, log: log}
}

// Execute analyzes every ad on pageID, per §4.7.
func (uc *AnalyzeCreatives) Execute(ctx context.Context, pageID string) (AnalyzeCreativesResult, error) {
	pageAds, err := uc.ads.ListByPage(ctx, pageID)
	if err != nil {
		return AnalyzeCreativesResult{}, errors.Repository("list_ads", err)
	}

	var analyses []domain.CreativeAnalysis
	for _, ad := range pageAds {
		now := uc.clock.Now()
		text := creativeText(ad)
		analysis, err := uc.creatives.GetOrCreate(ctx, ad.ID, func() domain.CreativeAnalysis {
			return domain.AnalyzeCreative(uc.ids.NewID(), ad.ID, text, now)
		})
		if err != nil {
			if uc.log != nil {
				uc.log.Warn(ctx, "creative analysis failed", map[string]interface{}{"ad_id": ad.ID, "error": err.Error()})
			}
			continue
		}
		analyses = append(analyses, analysis)
	}

	aggregate := domain.AggregateCreative(analyses, defaultCreativeTopN, defaultCreativeMinCount)
	return AnalyzeCreativesResult{Analyses: analyses, Aggregate: aggregate}, nil
}

// creativeText concatenates an ad's title, body, and CTA type into the
// single string the creative-insight heuristics score over.
func creativeText(ad domain.Ad) string {
	var parts []string
	if ad.Title != nil {
		parts = append(parts, *ad.Title)
	}
	if ad.Body != nil {
		parts = append(parts, *ad.Body)
	}
	if ad.CTAType != nil {
		parts = append(parts, *ad.CTAType)
	}
	return strings.Join(parts, " ")
}
