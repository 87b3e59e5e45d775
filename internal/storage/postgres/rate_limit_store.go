package postgres

import (
	"context"
	"fmt"
	"time"

	"oof-moments/internal/storage"
)

// RateLimitStore implements storage.RateLimitStore using PostgreSQL.
type RateLimitStore struct {
	pool *Pool
}

// NewRateLimitStore creates a new RateLimitStore.
func NewRateLimitStore(pool *Pool) *RateLimitStore {
	return &RateLimitStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RateLimitStore = (*RateLimitStore)(nil)

// GetLastAnalysisTime returns the recorded time for a wallet.
// Returns ErrNotFound if the wallet has never been analyzed.
func (s *RateLimitStore) GetLastAnalysisTime(ctx context.Context, walletAddress string) (time.Time, error) {
	query := `
		SELECT last_analysis_time
		FROM wallet_rate_limits
		WHERE wallet_address = $1
	`

	var t time.Time
	err := s.pool.QueryRow(ctx, query, walletAddress).Scan(&t)
	if err != nil {
		if isNotFoundError(err) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get last analysis time: %w", err)
	}
	return t.UTC(), nil
}

// SetLastAnalysisTime records the conclusion time of a run,
// overwriting any previous record.
func (s *RateLimitStore) SetLastAnalysisTime(ctx context.Context, walletAddress string, t time.Time) error {
	if walletAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_rate_limits (wallet_address, last_analysis_time)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO UPDATE SET last_analysis_time = EXCLUDED.last_analysis_time
	`

	if _, err := s.pool.Exec(ctx, query, walletAddress, t.UTC()); err != nil {
		return fmt.Errorf("set last analysis time: %w", err)
	}
	return nil
}
