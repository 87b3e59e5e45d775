package memory

import (
	"context"
	"sync"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
)

// AnalysisResultStore is an in-memory implementation of storage.AnalysisResultStore.
type AnalysisResultStore struct {
	mu sync.RWMutex
	// byWallet keeps insertion order per wallet; byRun guards uniqueness.
	byWallet map[string][]*domain.AnalysisResult
	byRun    map[string]struct{}
}

// NewAnalysisResultStore creates a new in-memory result store.
func NewAnalysisResultStore() *AnalysisResultStore {
	return &AnalysisResultStore{
		byWallet: make(map[string][]*domain.AnalysisResult),
		byRun:    make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.AnalysisResultStore = (*AnalysisResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisResultStore) Insert(_ context.Context, r *domain.AnalysisResult) error {
	if r == nil || r.RunID == "" || r.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byRun[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.byRun[r.RunID] = struct{}{}
	s.byWallet[r.WalletAddress] = append(s.byWallet[r.WalletAddress], cloneResult(r))
	return nil
}

// GetLatestByWallet retrieves the most recently inserted result for a wallet.
func (s *AnalysisResultStore) GetLatestByWallet(_ context.Context, walletAddress string) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.byWallet[walletAddress]
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return cloneResult(results[len(results)-1]), nil
}

// cloneResult deep-copies a result to prevent external mutation.
func cloneResult(r *domain.AnalysisResult) *domain.AnalysisResult {
	c := *r

	c.ChainsAnalyzed = append([]domain.Chain(nil), r.ChainsAnalyzed...)

	c.AllPositionAnalyses = make([]*domain.TokenPositionAnalysis, len(r.AllPositionAnalyses))
	for i, a := range r.AllPositionAnalyses {
		analysisCopy := *a
		c.AllPositionAnalyses[i] = &analysisCopy
	}

	c.Candidates = make([]*domain.MomentCandidate, len(r.Candidates))
	for i, m := range r.Candidates {
		c.Candidates[i] = cloneMoment(m)
	}

	return &c
}

// cloneMoment deep-copies a moment candidate.
func cloneMoment(m *domain.MomentCandidate) *domain.MomentCandidate {
	c := *m
	if m.Analysis != nil {
		analysisCopy := *m.Analysis
		c.Analysis = &analysisCopy
	}
	return &c
}
