package memory

import (
	"context"
	"sync"
	"time"

	"oof-moments/internal/storage"
)

// RateLimitStore is an in-memory implementation of storage.RateLimitStore.
type RateLimitStore struct {
	mu   sync.RWMutex
	data map[string]time.Time // keyed by wallet address
}

// NewRateLimitStore creates a new in-memory rate-limit store.
func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		data: make(map[string]time.Time),
	}
}

// Compile-time interface check.
var _ storage.RateLimitStore = (*RateLimitStore)(nil)

// GetLastAnalysisTime returns the recorded time for a wallet.
// Returns ErrNotFound if the wallet has never been analyzed.
func (s *RateLimitStore) GetLastAnalysisTime(_ context.Context, walletAddress string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[walletAddress]
	if !exists {
		return time.Time{}, storage.ErrNotFound
	}
	return t, nil
}

// SetLastAnalysisTime records the conclusion time of a run.
func (s *RateLimitStore) SetLastAnalysisTime(_ context.Context, walletAddress string, t time.Time) error {
	if walletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[walletAddress] = t
	return nil
}
