package moments

import "oof-moments/internal/domain"

// Score bounds and rarity cut-offs.
const (
	MaxScore           = 1000.0
	LegendaryThreshold = 750.0 // strictly above is legendary
	EpicThreshold      = 400.0 // strictly above is epic
)

// Score computes the bounded oof score and rarity tier for one analysis in
// one category.
//   - max_gains: total PnL / 100
//   - dusts: transaction count * 10
//   - lost_opportunities: missed-opportunity multiplier * 20
//
// All scores are clamped to [0, MaxScore].
func Score(category domain.MomentCategory, a *domain.TokenPositionAnalysis) (float64, domain.Rarity) {
	var raw float64
	switch category {
	case domain.CategoryMaxGains:
		raw = a.TotalPnL() / 100
	case domain.CategoryDusts:
		raw = float64(a.TransactionCount) * 10
	case domain.CategoryLostOpportunities:
		raw = a.MissedOpportunityMultiplier * 20
	}

	score := clamp(raw, 0, MaxScore)
	return score, rarityFor(score)
}

// OverallScore returns the arithmetic mean of the candidates' scores.
// Absent categories do not count as zero: the denominator is the number of
// present candidates. Returns 0 when none are present.
func OverallScore(candidates []*domain.MomentCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range candidates {
		sum += c.OofScore
	}
	return sum / float64(len(candidates))
}

func rarityFor(score float64) domain.Rarity {
	switch {
	case score > LegendaryThreshold:
		return domain.RarityLegendary
	case score > EpicThreshold:
		return domain.RarityEpic
	default:
		return domain.RarityRare
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
