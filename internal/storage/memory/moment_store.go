package memory

import (
	"context"
	"sort"
	"sync"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
)

// MomentStore is an in-memory implementation of storage.MomentStore.
type MomentStore struct {
	mu       sync.RWMutex
	byID     map[string]struct{}
	byWallet map[string][]*domain.MomentCandidate
}

// NewMomentStore creates a new in-memory moment store.
func NewMomentStore() *MomentStore {
	return &MomentStore{
		byID:     make(map[string]struct{}),
		byWallet: make(map[string][]*domain.MomentCandidate),
	}
}

// Compile-time interface check.
var _ storage.MomentStore = (*MomentStore)(nil)

// Insert adds a new moment. Returns ErrDuplicateKey if moment_id exists.
func (s *MomentStore) Insert(_ context.Context, walletAddress string, m *domain.MomentCandidate) error {
	if walletAddress == "" || m == nil || m.MomentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[m.MomentID]; exists {
		return storage.ErrDuplicateKey
	}

	s.byID[m.MomentID] = struct{}{}
	s.byWallet[walletAddress] = append(s.byWallet[walletAddress], cloneMoment(m))
	return nil
}

// GetByWallet retrieves all moments for a wallet, ordered by category ASC,
// moment_id ASC.
func (s *MomentStore) GetByWallet(_ context.Context, walletAddress string) ([]*domain.MomentCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	moments := s.byWallet[walletAddress]
	result := make([]*domain.MomentCandidate, 0, len(moments))
	for _, m := range moments {
		result = append(result, cloneMoment(m))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].MomentID < result[j].MomentID
	})

	return result, nil
}
