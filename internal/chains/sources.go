package chains

import (
	"context"

	"oof-moments/internal/domain"
)

// TransactionSource returns a bounded, time-ordered list of raw wallet
// activity for one chain. A returned error means "chain unavailable" and is
// recovered by the caller; it never aborts sibling chains.
type TransactionSource interface {
	// Chain identifies which chain this source serves.
	Chain() domain.Chain

	// FetchTransactions retrieves raw events for a wallet.
	FetchTransactions(ctx context.Context, walletAddress string) ([]RawEvent, error)
}

// HoldingSource returns the wallet's authoritative current balance of a
// token. Holdings are externally supplied ground truth, never derived from
// the transaction ledger.
type HoldingSource interface {
	// CurrentHolding returns the balance in UI units.
	CurrentHolding(ctx context.Context, walletAddress, tokenAddress string) (float64, error)
}

// Source combines transaction and holding access for chains whose RPC
// serves both.
type Source interface {
	TransactionSource
	HoldingSource
}
