// Package redis provides Redis-backed storage implementations for service
// deployments where the analysis gate is shared across replicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"oof-moments/internal/storage"
)

const rateLimitKeyPrefix = "oof:ratelimit:"

// RateLimitStore implements storage.RateLimitStore using Redis.
type RateLimitStore struct {
	client *redis.Client
	// ttl bounds how long a record is kept. Zero keeps records forever;
	// any value at or above the gate cooldown is safe, since an expired
	// record and an absent record both mean "eligible".
	ttl time.Duration
}

// NewRateLimitStore creates a new Redis-backed rate-limit store.
func NewRateLimitStore(client *redis.Client, ttl time.Duration) *RateLimitStore {
	return &RateLimitStore{client: client, ttl: ttl}
}

// Compile-time interface check.
var _ storage.RateLimitStore = (*RateLimitStore)(nil)

// GetLastAnalysisTime returns the recorded time for a wallet.
// Returns ErrNotFound if the wallet has no record or it has expired.
func (s *RateLimitStore) GetLastAnalysisTime(ctx context.Context, walletAddress string) (time.Time, error) {
	val, err := s.client.Get(ctx, rateLimitKeyPrefix+walletAddress).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get rate limit record: %w", err)
	}

	unixSec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse rate limit record %q: %w", val, err)
	}
	return time.Unix(unixSec, 0).UTC(), nil
}

// SetLastAnalysisTime records the conclusion time of a run.
func (s *RateLimitStore) SetLastAnalysisTime(ctx context.Context, walletAddress string, t time.Time) error {
	if walletAddress == "" {
		return storage.ErrInvalidInput
	}

	val := strconv.FormatInt(t.Unix(), 10)
	if err := s.client.Set(ctx, rateLimitKeyPrefix+walletAddress, val, s.ttl).Err(); err != nil {
		return fmt.Errorf("set rate limit record: %w", err)
	}
	return nil
}
