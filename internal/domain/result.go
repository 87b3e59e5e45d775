package domain

import "time"

// AnalysisResult is the aggregate output of one analysis run. Produced once
// per invocation and handed immutable to persistence and narrative layers.
type AnalysisResult struct {
	RunID         string `json:"runId"`
	WalletAddress string `json:"walletAddress"`

	// ChainsAnalyzed lists chains that returned data without fatal error,
	// in canonical order.
	ChainsAnalyzed []Chain `json:"chainsAnalyzed"`

	AllPositionAnalyses []*TokenPositionAnalysis `json:"allPositionAnalyses"`

	// Candidates holds up to three moment candidates, at most one per
	// category. A category with no qualifying token yields no entry.
	Candidates []*MomentCandidate `json:"candidates"`

	// OverallScore is the arithmetic mean of present candidates' scores,
	// 0 when none are present. Absent categories are excluded from the
	// denominator.
	OverallScore float64 `json:"overallScore"`

	AnalysisComplete bool   `json:"analysisComplete"`
	ErrorMessage     string `json:"errorMessage,omitempty"` // set iff every chain failed

	AnalyzedAt int64 `json:"analyzedAt"` // Unix seconds
}

// Candidate returns the candidate for the given category, nil if absent.
func (r *AnalysisResult) Candidate(category MomentCategory) *MomentCandidate {
	for _, c := range r.Candidates {
		if c.Category == category {
			return c
		}
	}
	return nil
}

// RateLimitRecord maps a wallet to the time its last analysis run concluded.
// Mutated only by the analysis gate.
type RateLimitRecord struct {
	WalletAddress    string
	LastAnalysisTime time.Time
}
