package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopsignal/platform/internal/domain"
)

func newTestDetectAlerts(alerts *fakeAlertRepository, clock *fakeClock) *DetectAlerts {
	return NewDetectAlerts(alerts, newFakeIDGenerator("alert"), clock, nil)
}

func TestDetectAlertsNoPriorProducesNoAlerts(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	alerts := newFakeAlertRepository()
	uc := newTestDetectAlerts(alerts, clock)

	page := &domain.Page{ID: "page-1", ActiveAdsCount: 5}
	fired, err := uc.ExecuteWithPrior(context.Background(), page, nil, 72.0)
	if err != nil {
		t.Fatalf("ExecuteWithPrior: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("expected no alerts with no prior score, got %d", len(fired))
	}
}

func TestDetectAlertsSingleScoreJump(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	alerts := newFakeAlertRepository()
	uc := newTestDetectAlerts(alerts, clock)

	page := &domain.Page{ID: "page-1", ActiveAdsCount: 5}
	prior := domain.NewShopScore("score-0", "page-1", 41, map[string]float64{"active_ads_count": 5}, clock.Now())

	// 41 -> 52 stays within tier M [40,55) so only score_jump fires, not tier_up.
	fired, err := uc.ExecuteWithPrior(context.Background(), page, &prior, 52.0)
	if err != nil {
		t.Fatalf("ExecuteWithPrior: %v", err)
	}
	if len(fired) != 1 || fired[0].Type != domain.AlertScoreJump {
		t.Fatalf("expected exactly one score_jump alert, got %+v", fired)
	}
	if len(alerts.stored) != 1 {
		t.Fatalf("expected the alert to be persisted, got %d stored", len(alerts.stored))
	}
}

// Combination scenario: old_score=45 (tier M), new_score=80 (tier XL),
// old_ads=10, new_ads=25 must fire exactly score_jump, tier_up, and
// new_ads_boost (ratio 25/10-1 = 1.5 >= AdsBoostRatioThreshold).
func TestDetectAlertsCombinationScenario(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	alerts := newFakeAlertRepository()
	uc := newTestDetectAlerts(alerts, clock)

	page := &domain.Page{ID: "page-1", ActiveAdsCount: 25}
	prior := domain.NewShopScore("score-0", "page-1", 45, map[string]float64{"active_ads_count": 10}, clock.Now())

	fired, err := uc.ExecuteWithPrior(context.Background(), page, &prior, 80.0)
	if err != nil {
		t.Fatalf("ExecuteWithPrior: %v", err)
	}
	if len(fired) != 3 {
		t.Fatalf("expected exactly 3 alerts, got %d: %+v", len(fired), fired)
	}
	seen := map[domain.AlertType]bool{}
	for _, a := range fired {
		seen[a.Type] = true
	}
	for _, want := range []domain.AlertType{domain.AlertScoreJump, domain.AlertTierUp, domain.AlertNewAdsBoost} {
		if !seen[want] {
			t.Fatalf("expected alert type %s among fired alerts %+v", want, fired)
		}
	}
}

// A persistence failure is logged and never propagated (§4.8, §7); the
// caller still receives the alerts the rule engine fired.
func TestDetectAlertsPersistenceFailureDoesNotPropagate(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	alerts := newFakeAlertRepository()
	alerts.failErr = context.DeadlineExceeded
	uc := newTestDetectAlerts(alerts, clock)

	page := &domain.Page{ID: "page-1", ActiveAdsCount: 5}
	prior := domain.NewShopScore("score-0", "page-1", 41, map[string]float64{"active_ads_count": 5}, clock.Now())

	// Same same-tier jump as above, isolated to a single fired alert.
	fired, err := uc.ExecuteWithPrior(context.Background(), page, &prior, 52.0)
	if err != nil {
		t.Fatalf("expected a logged persistence failure not to propagate, got error: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("expected the fired alert to still be returned despite the save failure, got %+v", fired)
	}
	if len(alerts.stored) != 0 {
		t.Fatalf("expected nothing to be stored after a failed CreateBatch, got %d", len(alerts.stored))
	}
	if alerts.batches != 1 {
		t.Fatalf("expected CreateBatch to have been attempted once, got %d", alerts.batches)
	}
}
