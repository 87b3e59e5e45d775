package storage

import (
	"context"
	"time"

	"oof-moments/internal/domain"
)

// RateLimitStore persists per-wallet analysis cooldown records.
// Backed by any key-value capable store; the gate is its only writer.
type RateLimitStore interface {
	// GetLastAnalysisTime returns the time the wallet's last run concluded.
	// Returns ErrNotFound if the wallet has never been analyzed.
	GetLastAnalysisTime(ctx context.Context, walletAddress string) (time.Time, error)

	// SetLastAnalysisTime records the conclusion time of a run,
	// overwriting any previous record.
	SetLastAnalysisTime(ctx context.Context, walletAddress string, t time.Time) error
}

// AnalysisResultStore persists completed analysis runs.
type AnalysisResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.AnalysisResult) error

	// GetLatestByWallet retrieves the most recent result for a wallet.
	// Returns ErrNotFound if the wallet has no results.
	GetLatestByWallet(ctx context.Context, walletAddress string) (*domain.AnalysisResult, error)
}

// MomentStore persists selected moment candidates.
type MomentStore interface {
	// Insert adds a new moment. Returns ErrDuplicateKey if moment_id exists.
	Insert(ctx context.Context, walletAddress string, m *domain.MomentCandidate) error

	// GetByWallet retrieves all moments for a wallet, ordered by
	// category ASC, moment_id ASC.
	GetByWallet(ctx context.Context, walletAddress string) ([]*domain.MomentCandidate, error)
}

// PositionArchiveStore appends per-run position analyses for offline
// analytics. Append-only; rows are never updated.
type PositionArchiveStore interface {
	// InsertBulk appends all position analyses of one run.
	InsertBulk(ctx context.Context, runID, walletAddress string, analyzedAt int64, analyses []*domain.TokenPositionAnalysis) error

	// GetByWallet retrieves archived analyses for a wallet, ordered by
	// analyzed_at ASC, token_address ASC.
	GetByWallet(ctx context.Context, walletAddress string) ([]*domain.TokenPositionAnalysis, error)
}
