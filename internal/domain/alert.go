package domain

import (
	"fmt"
	"strings"
	"time"
)

// AlertType is the kind of change the alert-detection engine flagged.
type AlertType string

const (
	AlertScoreJump   AlertType = "score_jump"
	AlertScoreDrop   AlertType = "score_drop"
	AlertTierUp      AlertType = "tier_up"
	AlertTierDown    AlertType = "tier_down"
	AlertNewAdsBoost AlertType = "new_ads_boost"
)

// AlertSeverity classifies how urgently an alert warrants attention.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Named thresholds for the alert-detection rules (§4.8). These are the
// single source of truth; no call site hardcodes them separately.
const (
	ScoreChangeThreshold   = 10.0
	AdsBoostRatioThreshold = 1.0
)

// Alert is an immutable record of a detected change in a page's standing.
type Alert struct {
	ID        string
	PageID    string
	Type      AlertType
	Severity  AlertSeverity
	Message   string
	OldScore  *float64
	NewScore  *float64
	OldTier   *Tier
	NewTier   *Tier
	CreatedAt time.Time
}

// AlertObservation is the before/after snapshot the alert-detection engine
// evaluates for one page.
type AlertObservation struct {
	PageID       string
	NewScore     float64
	NewTier      Tier
	NewAdsCount  int
	OldScore     *float64
	OldTier      *Tier
	OldAdsCount  *int
}

// DetectAlerts evaluates every rule in §4.8 against obs and returns one
// Alert per rule that fires. IDs are assigned by the caller (idGen) since
// this package does not generate identifiers itself.
func DetectAlerts(obs AlertObservation, now time.Time, idGen func() string) []Alert {
	var alerts []Alert

	if obs.OldScore != nil {
		delta := obs.NewScore - *obs.OldScore
		if delta >= ScoreChangeThreshold {
			alerts = append(alerts, Alert{
				ID:        idGen(),
				PageID:    obs.PageID,
				Type:      AlertScoreJump,
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("score jumped from %.2f to %.2f", *obs.OldScore, obs.NewScore),
				OldScore:  obs.OldScore,
				NewScore:  &obs.NewScore,
				CreatedAt: now,
			})
		} else if -delta >= ScoreChangeThreshold {
			alerts = append(alerts, Alert{
				ID:        idGen(),
				PageID:    obs.PageID,
				Type:      AlertScoreDrop,
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("score dropped from %.2f to %.2f", *obs.OldScore, obs.NewScore),
				OldScore:  obs.OldScore,
				NewScore:  &obs.NewScore,
				CreatedAt: now,
			})
		}
	}

	if obs.OldTier != nil {
		oldTier := Tier(strings.ToUpper(string(*obs.OldTier)))
		newTier := obs.NewTier
		switch {
		case newTier.Rank() > oldTier.Rank():
			alerts = append(alerts, Alert{
				ID:        idGen(),
				PageID:    obs.PageID,
				Type:      AlertTierUp,
				Severity:  SeverityInfo,
				Message:   fmt.Sprintf("tier moved up from %s to %s", oldTier, newTier),
				OldTier:   &oldTier,
				NewTier:   &obs.NewTier,
				CreatedAt: now,
			})
		case newTier.Rank() < oldTier.Rank():
			alerts = append(alerts, Alert{
				ID:        idGen(),
				PageID:    obs.PageID,
				Type:      AlertTierDown,
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("tier moved down from %s to %s", oldTier, newTier),
				OldTier:   &oldTier,
				NewTier:   &obs.NewTier,
				CreatedAt: now,
			})
		}
	}

	if obs.OldAdsCount != nil {
		base := *obs.OldAdsCount
		if base < 1 {
			base = 1
		}
		ratio := float64(obs.NewAdsCount)/float64(base) - 1
		if ratio >= AdsBoostRatioThreshold {
			alerts = append(alerts, Alert{
				ID:        idGen(),
				PageID:    obs.PageID,
				Type:      AlertNewAdsBoost,
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("active ads grew from %d to %d", *obs.OldAdsCount, obs.NewAdsCount),
				CreatedAt: now,
			})
		}
	}

	return alerts
}
