// Package gate enforces the per-wallet analysis cooldown. A wallet may be
// analyzed at most once per cooldown window; the window starts when a run
// concludes, whether it succeeded or failed.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oof-moments/internal/storage"
)

// DefaultCooldown is the minimum interval between two runs for one wallet.
const DefaultCooldown = 24 * time.Hour

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed         bool
	NextAllowedTime time.Time // zero when Allowed
}

// RateLimitedError reports a rejected run and when a retry becomes valid.
type RateLimitedError struct {
	WalletAddress   string
	NextAllowedTime time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("wallet %s is rate limited until %s",
		e.WalletAddress, e.NextAllowedTime.UTC().Format(time.RFC3339))
}

// Gate checks and records per-wallet cooldowns against a RateLimitStore.
type Gate struct {
	store    storage.RateLimitStore
	cooldown time.Duration
	now      func() time.Time
}

// GateOption configures Gate.
type GateOption func(*Gate)

// WithCooldown overrides the cooldown window.
func WithCooldown(d time.Duration) GateOption {
	return func(g *Gate) {
		g.cooldown = d
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

// NewGate creates a gate over the given store.
func NewGate(store storage.RateLimitStore, opts ...GateOption) *Gate {
	g := &Gate{
		store:    store,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsAnalysisAllowed reports whether a new run may start for the wallet.
// A wallet with no record, or whose last run concluded at least one
// cooldown ago, is allowed. Store errors other than ErrNotFound propagate;
// the caller decides whether to fail open.
func (g *Gate) IsAnalysisAllowed(ctx context.Context, walletAddress string) (Decision, error) {
	last, err := g.store.GetLastAnalysisTime(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Decision{Allowed: true}, nil
		}
		return Decision{}, fmt.Errorf("get last analysis time: %w", err)
	}

	next := last.Add(g.cooldown)
	if g.now().Before(next) {
		return Decision{Allowed: false, NextAllowedTime: next}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecordRun stores the wallet's run-conclusion time, starting a new
// cooldown window.
func (g *Gate) RecordRun(ctx context.Context, walletAddress string) error {
	if err := g.store.SetLastAnalysisTime(ctx, walletAddress, g.now()); err != nil {
		return fmt.Errorf("set last analysis time: %w", err)
	}
	return nil
}
