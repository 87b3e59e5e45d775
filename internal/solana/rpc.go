// Package solana provides a JSON-RPC 2.0 HTTP client for Solana wallet
// history and balance queries.
package solana

import "context"

// RPCClient defines the Solana RPC surface the engine consumes.
type RPCClient interface {
	// GetSignaturesForAddress retrieves recent signatures for an address,
	// newest first, up to limit.
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error)

	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns nil if the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetTokenBalance returns the wallet's aggregate balance of a token
	// mint in UI units (decimals applied).
	GetTokenBalance(ctx context.Context, owner, mint string) (float64, error)
}

// SignatureInfo summarizes one signature from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string `json:"signature"`
	Slot      int64  `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Err       any    `json:"err"`
}

// Transaction represents a confirmed Solana transaction with the metadata
// needed to derive token balance deltas.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix seconds
	Meta      *TransactionMeta
}

// TransactionMeta contains balance metadata for a transaction.
type TransactionMeta struct {
	Err               any
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	PreBalances       []uint64 // lamports, by account index
	PostBalances      []uint64
}

// TokenBalance is one SPL token balance entry from transaction metadata.
type TokenBalance struct {
	AccountIndex int     `json:"accountIndex"`
	Mint         string  `json:"mint"`
	Owner        string  `json:"owner"`
	UIAmount     float64 // decimals applied
}
