// Package pricing provides token price and metadata lookup for the
// analysis pipeline.
package pricing

import (
	"context"

	"oof-moments/internal/domain"
)

// TokenMetadata describes a token for display purposes.
type TokenMetadata struct {
	Symbol string
	Name   string
}

// Oracle looks up spot prices, historical peaks and metadata for a token
// on a chain. Price methods return 0 for unknown tokens; an error means
// the oracle itself is unavailable.
type Oracle interface {
	// CurrentPrice returns the token's current spot price in USD.
	CurrentPrice(ctx context.Context, chain domain.Chain, tokenAddress string) (float64, error)

	// PeakPrice returns the token's historical peak price in USD.
	PeakPrice(ctx context.Context, chain domain.Chain, tokenAddress string) (float64, error)

	// TokenMetadata returns the token's symbol and name. Unknown tokens
	// yield empty metadata, not an error.
	TokenMetadata(ctx context.Context, chain domain.Chain, tokenAddress string) (TokenMetadata, error)
}
