// Package classify applies fixed thresholds to flag position analyses as
// dust, gain, and/or premature exit. The flags are independent booleans.
package classify

import (
	"strings"

	"oof-moments/internal/domain"
)

// Thresholds holds the categorization cut-offs. They are configuration, not
// call-site literals, so they can be tuned without touching logic.
type Thresholds struct {
	// DustThresholdUSD: a holding worth strictly less than this is dust.
	// A value of exactly the threshold is NOT dust.
	DustThresholdUSD float64

	// PaperHandsThreshold: selling below this fraction of the peak price
	// counts as a premature exit. Selling at exactly the fraction does not.
	PaperHandsThreshold float64
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DustThresholdUSD:    1.0,
		PaperHandsThreshold: 0.3,
	}
}

// nativeAssets lists each chain's gas asset (and its wrapped form), which is
// excluded from dust categorization: small native balances are working
// capital, not forgotten holdings.
var nativeAssets = map[domain.Chain]map[string]struct{}{
	domain.ChainSolana: {
		"So11111111111111111111111111111111111111112": {},
	},
	domain.ChainBase: {
		"0x0000000000000000000000000000000000000000": {},
		"0x4200000000000000000000000000000000000006": {}, // WETH
	},
	domain.ChainAvalanche: {
		"0x0000000000000000000000000000000000000000": {},
		"0xb31f66aa3c1e785363f0875a1b74e27b85fd66c7": {}, // WAVAX
	},
}

// IsNativeAsset reports whether token is the chain's gas asset. EVM addresses
// compare case-insensitively.
func IsNativeAsset(chain domain.Chain, tokenAddress string) bool {
	assets, ok := nativeAssets[chain]
	if !ok {
		return false
	}
	if chain == domain.ChainSolana {
		_, found := assets[tokenAddress]
		return found
	}
	_, found := assets[strings.ToLower(tokenAddress)]
	return found
}

// Apply sets the categorization flags on a. Pure with respect to everything
// but the three boolean fields.
func (t Thresholds) Apply(a *domain.TokenPositionAnalysis) {
	a.IsDust = !IsNativeAsset(a.Chain, a.TokenAddress) && a.CurrentValueUSD() < t.DustThresholdUSD
	a.IsGain = a.TotalPnL() > 0
	a.IsPaperHands = a.TotalSold > 0 && a.AverageSellPrice < a.PeakPrice*t.PaperHandsThreshold
}
