// Package moments selects the best candidate per behavioral category across
// all analyzed tokens and computes its score and rarity tier.
package moments

import (
	"sort"

	"oof-moments/internal/domain"
	"oof-moments/internal/idhash"
)

// SelectCandidates picks at most one candidate per category from all position
// analyses for a wallet. A category with no qualifying token yields no
// candidate, never a placeholder. The same token may win multiple categories.
//
// Selection is deterministic for identical inputs: candidates are compared
// with explicit tie-breaks ending in token address, and the input is scanned
// in sorted order so no map iteration order leaks through.
func SelectCandidates(walletAddress string, analyses []*domain.TokenPositionAnalysis) []*domain.MomentCandidate {
	sorted := make([]*domain.TokenPositionAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TokenAddress != sorted[j].TokenAddress {
			return sorted[i].TokenAddress < sorted[j].TokenAddress
		}
		return sorted[i].Chain < sorted[j].Chain
	})

	var candidates []*domain.MomentCandidate
	for _, category := range domain.AllCategories() {
		if best := selectForCategory(category, sorted); best != nil {
			candidates = append(candidates, buildCandidate(walletAddress, category, best))
		}
	}
	return candidates
}

// selectForCategory scans the sorted analyses and keeps the best qualifying
// one. Because the input is sorted by token address, a later element replaces
// the incumbent only when strictly better, which makes the final tie-break
// (lowest token address wins) implicit.
func selectForCategory(category domain.MomentCategory, sorted []*domain.TokenPositionAnalysis) *domain.TokenPositionAnalysis {
	var best *domain.TokenPositionAnalysis
	for _, a := range sorted {
		if !qualifies(category, a) {
			continue
		}
		if best == nil || better(category, a, best) {
			best = a
		}
	}
	return best
}

func qualifies(category domain.MomentCategory, a *domain.TokenPositionAnalysis) bool {
	switch category {
	case domain.CategoryMaxGains:
		return a.IsGain
	case domain.CategoryDusts:
		return a.IsDust
	case domain.CategoryLostOpportunities:
		return a.IsPaperHands
	}
	return false
}

// better reports whether a strictly beats b for the category.
func better(category domain.MomentCategory, a, b *domain.TokenPositionAnalysis) bool {
	switch category {
	case domain.CategoryMaxGains:
		// Highest total PnL; tie-break on higher current value.
		if a.TotalPnL() != b.TotalPnL() {
			return a.TotalPnL() > b.TotalPnL()
		}
		return a.CurrentValueUSD() > b.CurrentValueUSD()

	case domain.CategoryDusts:
		// Most transactions, a proxy for most deliberately accumulated;
		// tie-break on lowest remaining value.
		if a.TransactionCount != b.TransactionCount {
			return a.TransactionCount > b.TransactionCount
		}
		return a.CurrentValueUSD() < b.CurrentValueUSD()

	case domain.CategoryLostOpportunities:
		// Highest peak/sell multiple; tie-break on larger missed USD value.
		if a.MissedOpportunityMultiplier != b.MissedOpportunityMultiplier {
			return a.MissedOpportunityMultiplier > b.MissedOpportunityMultiplier
		}
		return missedUSD(a) > missedUSD(b)
	}
	return false
}

// missedUSD is the absolute value left on the table by selling below peak.
func missedUSD(a *domain.TokenPositionAnalysis) float64 {
	return (a.PeakPrice - a.AverageSellPrice) * a.TotalSold
}

func buildCandidate(walletAddress string, category domain.MomentCategory, a *domain.TokenPositionAnalysis) *domain.MomentCandidate {
	score, rarity := Score(category, a)

	return &domain.MomentCandidate{
		MomentID: idhash.ComputeMomentID(walletAddress, category, a.Chain, a.TokenAddress),
		Category: category,
		Analysis: a,
		OofScore: score,
		Rarity:   rarity,
		NarrativeSeed: domain.NarrativeSeed{
			Category:                    category,
			Symbol:                      a.Symbol,
			Name:                        a.Name,
			Chain:                       a.Chain,
			TokenAddress:                a.TokenAddress,
			TotalPnL:                    a.TotalPnL(),
			CurrentValueUSD:             a.CurrentValueUSD(),
			TransactionCount:            a.TransactionCount,
			MissedOpportunityMultiplier: a.MissedOpportunityMultiplier,
			PeakPrice:                   a.PeakPrice,
			AverageSellPrice:            a.AverageSellPrice,
		},
	}
}
