package domain

// MomentCategory identifies the behavioral category a candidate represents.
type MomentCategory string

const (
	CategoryMaxGains          MomentCategory = "max_gains"
	CategoryDusts             MomentCategory = "dusts"
	CategoryLostOpportunities MomentCategory = "lost_opportunities"
)

// AllCategories returns every category in canonical order.
func AllCategories() []MomentCategory {
	return []MomentCategory{CategoryMaxGains, CategoryDusts, CategoryLostOpportunities}
}

// Rarity is a coarse presentation bucket derived from the numeric score.
type Rarity string

const (
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// NarrativeSeed is the plain data handed to the downstream narrative
// generator. No free text is composed here.
type NarrativeSeed struct {
	Category     MomentCategory `json:"category"`
	Symbol       string         `json:"symbol"`
	Name         string         `json:"name"`
	Chain        Chain          `json:"chain"`
	TokenAddress string         `json:"tokenAddress"`

	// Key metric values for the category.
	TotalPnL                    float64 `json:"totalPnL"`
	CurrentValueUSD             float64 `json:"currentValueUSD"`
	TransactionCount            int     `json:"transactionCount"`
	MissedOpportunityMultiplier float64 `json:"missedOpportunityMultiplier"`
	PeakPrice                   float64 `json:"peakPrice"`
	AverageSellPrice            float64 `json:"averageSellPrice"`
}

// MomentCandidate is the best representative of one category, chosen from
// all position analyses for a wallet. At most one exists per category per run.
type MomentCandidate struct {
	MomentID      string                 `json:"momentId"` // deterministic hash, stable across reruns
	Category      MomentCategory         `json:"category"`
	Analysis      *TokenPositionAnalysis `json:"tokenPositionAnalysis"`
	OofScore      float64                `json:"oofScore"` // bounded to [0, 1000]
	Rarity        Rarity                 `json:"rarity"`
	NarrativeSeed NarrativeSeed          `json:"narrativeSeed"`
}
