package domain

// TokenPositionAnalysis is the derived state of one token holding for one
// wallet on one chain. Computed fresh per analysis run; never cached across
// runs.
type TokenPositionAnalysis struct {
	TokenAddress string `json:"tokenAddress"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Chain        Chain  `json:"chain"`

	// Cumulative units, value-weighted from transactions.
	TotalBought float64 `json:"totalBought"`
	TotalSold   float64 `json:"totalSold"`

	// CurrentHolding is externally supplied and authoritative. It is NOT
	// derived from TotalBought - TotalSold.
	CurrentHolding float64 `json:"currentHolding"`

	AverageBuyPrice  float64 `json:"averageBuyPrice"`  // value-weighted mean, 0 if no buys
	AverageSellPrice float64 `json:"averageSellPrice"` // value-weighted mean, 0 if no sells

	RealizedPnL   float64 `json:"realizedPnL"`   // (avg sell - avg buy) * total sold
	UnrealizedPnL float64 `json:"unrealizedPnL"` // (current - avg buy) * current holding

	PeakPrice    float64 `json:"peakPrice"` // max of observed tx prices and oracle peak
	CurrentPrice float64 `json:"currentPrice"`

	TransactionCount int `json:"transactionCount"`

	IsDust       bool `json:"isDust"`
	IsGain       bool `json:"isGain"`
	IsPaperHands bool `json:"isPaperHands"`

	// MissedOpportunityMultiplier is peakPrice / averageSellPrice when sells
	// occurred and the peak exceeds the sell price, 0 otherwise.
	MissedOpportunityMultiplier float64 `json:"missedOpportunityMultiplier"`
}

// CurrentValueUSD returns the market value of the remaining holding.
func (a *TokenPositionAnalysis) CurrentValueUSD() float64 {
	return a.CurrentHolding * a.CurrentPrice
}

// TotalPnL returns realized plus unrealized profit and loss.
func (a *TokenPositionAnalysis) TotalPnL() float64 {
	return a.RealizedPnL + a.UnrealizedPnL
}
