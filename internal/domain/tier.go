package domain

// Tier is the coarse, human-facing bucket a ShopScore maps to. It is the
// single vocabulary shared by ranking filters, scoring, and alerts — no
// other package computes tier boundaries.
type Tier string

const (
	TierXXL Tier = "XXL"
	TierXL  Tier = "XL"
	TierL   Tier = "L"
	TierM   Tier = "M"
	TierS   Tier = "S"
	TierXS  Tier = "XS"
)

// tierOrder ranks tiers from lowest to highest for TIER_UP/TIER_DOWN
// alert comparisons.
var tierOrder = map[Tier]int{
	TierXS: 0, TierS: 1, TierM: 2, TierL: 3, TierXL: 4, TierXXL: 5,
}

// Valid reports whether t is one of the six canonical tiers.
func (t Tier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

// Rank returns t's position in the tier order, lowest first. Callers
// should check Valid first; an unknown tier ranks 0, the same as TierXS.
func (t Tier) Rank() int {
	return tierOrder[t]
}

// tierRange is a half-open score interval [Min, Max) except for XXL, whose
// Max is inclusive of 100.
type tierRange struct {
	Min, Max float64
}

var tierScoreRanges = map[Tier]tierRange{
	TierXXL: {85, 100},
	TierXL:  {70, 85},
	TierL:   {55, 70},
	TierM:   {40, 55},
	TierS:   {25, 40},
	TierXS:  {0, 25},
}

// ScoreToTier is the single canonical mapping from a 0-100 score to its
// tier. Every component that needs a tier from a score calls this.
func ScoreToTier(score float64) Tier {
	switch {
	case score >= 85:
		return TierXXL
	case score >= 70:
		return TierXL
	case score >= 55:
		return TierL
	case score >= 40:
		return TierM
	case score >= 25:
		return TierS
	default:
		return TierXS
	}
}

// TierScoreRange returns the score bounds associated with t: min is
// inclusive and max exclusive, except for XXL whose max of 100 is inclusive.
func (t Tier) TierScoreRange() (min, max float64, ok bool) {
	r, ok := tierScoreRanges[t]
	return r.Min, r.Max, ok
}

// clampScore bounds a score into the valid [0, 100] range.
func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
