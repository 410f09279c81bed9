package usecase

import (
	"context"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/ports"
)

// ComputeShopScoreResult is the contract result of ComputeShopScore.Execute
// (§4.6), chained into alert detection per the end-to-end data flow.
type ComputeShopScoreResult struct {
	Score      float64
	Tier       domain.Tier
	Components map[string]float64
	Alerts     []domain.Alert
}

// ComputeShopScore implements the scoring-engine use case: assemble the
// canonical formula's inputs from the page and its ads, persist the score,
// and chain into alert detection against the prior observation.
type ComputeShopScore struct {
	pages  ports.PageRepository
	ads    ports.AdRepository
	scores ports.ShopScoreRepository
	alerts *DetectAlerts
	ids    ports.IDGenerator
	clock  ports.Clock
}

// NewComputeShopScore wires a ComputeShopScore use case.
func NewComputeShopScore(pages ports.PageRepository, ads ports.AdRepository, scores ports.ShopScoreRepository, alerts *DetectAlerts, ids ports.IDGenerator, clock ports.Clock) *ComputeShopScore {
	return &ComputeShopScore{pages: pages, ads: ads, scores: scores, alerts: alerts, ids: ids, clock: clock}
}

// Execute computes and persists a fresh score for one page, per §4.6.
func (uc *ComputeShopScore) Execute(ctx context.Context, pageID string) (ComputeShopScoreResult, error) {
	page, err := uc.pages.Get(ctx, pageID)
	if err != nil {
		return ComputeShopScoreResult{}, errors.NotFound("page", pageID)
	}

	pageAds, err := uc.ads.ListByPage(ctx, pageID)
	if err != nil {
		return ComputeShopScoreResult{}, errors.Repository("list_ads", err)
	}

	prior, _ := uc.scores.GetLatest(ctx, pageID)

	score, components := domain.ComputeScore(domain.ScoringInput{
		Ads:            pageAds,
		IsCommerce:     page.IsCommercePlatform,
		Currency:       page.Currency,
		ActiveAdsCount: page.ActiveAdsCount,
		TotalAdsCount:  page.TotalAdsCount,
		ProductCount:   page.ProductCount,
	})

	// active_ads_count rides alongside the four canonical components so the
	// next run's alert detection can recover the prior ads snapshot without
	// a separate query.
	components["active_ads_count"] = float64(page.ActiveAdsCount)

	now := uc.clock.Now()
	record := domain.NewShopScore(uc.ids.NewID(), pageID, score, components, now)
	if err := uc.scores.Create(ctx, record); err != nil {
		return ComputeShopScoreResult{}, errors.Repository("create_shop_score", err)
	}

	page.UpdateScore(score, now)
	if err := uc.pages.Update(ctx, page); err != nil {
		return ComputeShopScoreResult{}, errors.Repository("update_page", err)
	}

	// Alert detection runs best-effort: the score row and page update above
	// are already committed, and a failure to persist an alert must not
	// discard that already-computed result (§4.8, §7).
	var alertsFired []domain.Alert
	if uc.alerts != nil {
		alertsFired, _ = uc.alerts.ExecuteWithPrior(ctx, page, prior, score)
	}

	return ComputeShopScoreResult{
		Score:      score,
		Tier:       record.Tier(),
		Components: components,
		Alerts:     alertsFired,
	}, nil
}
