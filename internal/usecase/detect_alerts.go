package usecase

import (
	"context"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/ports"
)

// DetectAlerts implements the alert-detection orchestration use case: build
// an AlertObservation from the prior and current score/ads snapshots, run
// the pure rule engine, and persist the result. A per-alert persistence
// failure is logged, not propagated (§7: batch tolerance).
type DetectAlerts struct {
	alerts ports.AlertRepository
	ids    ports.IDGenerator
	clock  ports.Clock
	log    *logging.Logger
}

// NewDetectAlerts wires a DetectAlerts use case.
func NewDetectAlerts(alerts ports.AlertRepository, ids ports.IDGenerator, clock ports.Clock, log *logging.Logger) *DetectAlerts {
	return &DetectAlerts{alerts: alerts, ids: ids, clock: clock, log: log}
}

// ExecuteWithPrior compares a page's prior recorded score (nil if this is
// the page's first score) against its freshly computed one, persists any
// alerts produced, and returns them.
func (uc *DetectAlerts) ExecuteWithPrior(ctx context.Context, page *domain.Page, prior *domain.ShopScore, newScore float64) ([]domain.Alert, error) {
	obs := domain.AlertObservation{
		PageID:      page.ID,
		NewScore:    newScore,
		NewTier:     domain.ScoreToTier(newScore),
		NewAdsCount: page.ActiveAdsCount,
	}
	if prior != nil {
		oldScore := prior.Score
		oldTier := prior.Tier()
		oldAds := int(prior.Component("active_ads_count", float64(page.ActiveAdsCount)))
		obs.OldScore = &oldScore
		obs.OldTier = &oldTier
		obs.OldAdsCount = &oldAds
	}

	now := uc.clock.Now()
	fired := domain.DetectAlerts(obs, now, uc.ids.NewID)
	if len(fired) == 0 {
		return nil, nil
	}

	if err := uc.alerts.CreateBatch(ctx, fired); err != nil {
		if uc.log != nil {
			uc.log.Warn(ctx, "alert persistence failed", map[string]interface{}{"page_id": page.ID, "error": err.Error()})
		}
	}
	return fired, nil
}
