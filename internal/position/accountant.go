// Package position folds a token's transaction stream plus its current
// on-chain holding into a position analysis with realized and unrealized
// performance.
package position

import (
	"sort"

	"oof-moments/internal/domain"
)

// MinTransactions is the minimum number of qualifying transactions a token
// needs to carry enough signal for categorization. Tokens below this are
// excluded from further pipeline stages.
const MinTransactions = 2

// PriceInfo carries oracle-sourced pricing for one token. Zero values mean
// the oracle had no data; the analysis degrades rather than aborts.
type PriceInfo struct {
	Current float64
	Peak    float64
}

// TokenMeta identifies a token for presentation.
type TokenMeta struct {
	Symbol string
	Name   string
}

// Analyze produces a TokenPositionAnalysis from the full transaction list for
// one token on one chain, the externally supplied current holding, and the
// oracle prices.
//
// Cost basis is value-weighted average, not FIFO/LIFO lot matching: lots are
// not tracked individually, so partial-lot realized gains are an
// approximation. Transactions are re-sorted by (timestamp, signature) before
// folding so the result does not depend on input order.
func Analyze(txs []*domain.TokenTransaction, currentHolding float64, prices PriceInfo, meta TokenMeta) *domain.TokenPositionAnalysis {
	if len(txs) == 0 {
		return nil
	}

	sorted := make([]*domain.TokenTransaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].SignatureOrHash < sorted[j].SignatureOrHash
	})

	var (
		totalBought, buyValue float64
		totalSold, sellValue  float64
		peakObserved          float64
	)

	for _, tx := range sorted {
		switch tx.Kind {
		case domain.TransactionBuy:
			totalBought += tx.Amount
			buyValue += tx.Amount * tx.PricePerUnit
		case domain.TransactionSell:
			totalSold += tx.Amount
			sellValue += tx.Amount * tx.PricePerUnit
		}
		if tx.PricePerUnit > peakObserved {
			peakObserved = tx.PricePerUnit
		}
	}

	var averageBuyPrice float64
	if totalBought > 0 {
		averageBuyPrice = buyValue / totalBought
	}

	var averageSellPrice float64
	if totalSold > 0 {
		averageSellPrice = sellValue / totalSold
	}

	peakPrice := peakObserved
	if prices.Peak > peakPrice {
		peakPrice = prices.Peak
	}

	a := &domain.TokenPositionAnalysis{
		TokenAddress:     sorted[0].TokenAddress,
		Symbol:           meta.Symbol,
		Name:             meta.Name,
		Chain:            sorted[0].Chain,
		TotalBought:      totalBought,
		TotalSold:        totalSold,
		CurrentHolding:   currentHolding,
		AverageBuyPrice:  averageBuyPrice,
		AverageSellPrice: averageSellPrice,
		RealizedPnL:      (averageSellPrice - averageBuyPrice) * totalSold,
		UnrealizedPnL:    (prices.Current - averageBuyPrice) * currentHolding,
		PeakPrice:        peakPrice,
		CurrentPrice:     prices.Current,
		TransactionCount: len(sorted),
	}

	// peak/avgSell multiple, only meaningful when sells happened at a known
	// price below the peak.
	if totalSold > 0 && averageSellPrice > 0 && peakPrice > averageSellPrice {
		a.MissedOpportunityMultiplier = peakPrice / averageSellPrice
	}

	return a
}
