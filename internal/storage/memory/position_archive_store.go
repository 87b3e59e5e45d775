package memory

import (
	"context"
	"sort"
	"sync"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
)

// archiveRow pairs an archived analysis with its run metadata.
type archiveRow struct {
	runID      string
	wallet     string
	analyzedAt int64
	analysis   *domain.TokenPositionAnalysis
}

// PositionArchiveStore is an in-memory implementation of
// storage.PositionArchiveStore.
type PositionArchiveStore struct {
	mu   sync.RWMutex
	rows []archiveRow
}

// NewPositionArchiveStore creates a new in-memory position archive store.
func NewPositionArchiveStore() *PositionArchiveStore {
	return &PositionArchiveStore{}
}

// Compile-time interface check.
var _ storage.PositionArchiveStore = (*PositionArchiveStore)(nil)

// InsertBulk appends all position analyses of one run.
func (s *PositionArchiveStore) InsertBulk(_ context.Context, runID, walletAddress string, analyzedAt int64, analyses []*domain.TokenPositionAnalysis) error {
	if runID == "" || walletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range analyses {
		analysisCopy := *a
		s.rows = append(s.rows, archiveRow{
			runID:      runID,
			wallet:     walletAddress,
			analyzedAt: analyzedAt,
			analysis:   &analysisCopy,
		})
	}
	return nil
}

// GetByWallet retrieves archived analyses for a wallet, ordered by
// analyzed_at ASC, token_address ASC.
func (s *PositionArchiveStore) GetByWallet(_ context.Context, walletAddress string) ([]*domain.TokenPositionAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []archiveRow
	for _, row := range s.rows {
		if row.wallet == walletAddress {
			matched = append(matched, row)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].analyzedAt != matched[j].analyzedAt {
			return matched[i].analyzedAt < matched[j].analyzedAt
		}
		return matched[i].analysis.TokenAddress < matched[j].analysis.TokenAddress
	})

	result := make([]*domain.TokenPositionAnalysis, 0, len(matched))
	for _, row := range matched {
		analysisCopy := *row.analysis
		result = append(result, &analysisCopy)
	}
	return result, nil
}
