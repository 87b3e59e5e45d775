package chains

import (
	"context"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"oof-moments/internal/domain"
	"oof-moments/internal/logger"
	"oof-moments/internal/solana"
)

// DefaultSignatureLimit bounds how far back wallet history is fetched.
const DefaultSignatureLimit = 200

// SolanaSource fetches wallet activity and balances from Solana RPC.
type SolanaSource struct {
	rpc      solana.RPCClient
	sigLimit int
}

// NewSolanaSource creates a new Solana-backed source.
func NewSolanaSource(rpc solana.RPCClient) *SolanaSource {
	return &SolanaSource{rpc: rpc, sigLimit: DefaultSignatureLimit}
}

// Compile-time interface check.
var _ Source = (*SolanaSource)(nil)

// Chain identifies this source.
func (s *SolanaSource) Chain() domain.Chain {
	return domain.ChainSolana
}

// FetchTransactions retrieves the wallet's recent transactions and converts
// each into a SolanaRawEvent carrying the wallet's token balance deltas.
func (s *SolanaSource) FetchTransactions(ctx context.Context, walletAddress string) ([]RawEvent, error) {
	if !IsValidSolanaWallet(walletAddress) {
		return nil, fmt.Errorf("invalid solana wallet address %q", walletAddress)
	}

	sigs, err := s.rpc.GetSignaturesForAddress(ctx, walletAddress, s.sigLimit)
	if err != nil {
		return nil, fmt.Errorf("get signatures for %s: %w", walletAddress, err)
	}

	var events []RawEvent
	for _, sig := range sigs {
		if sig.Err != nil {
			continue // failed transaction, no balance effect
		}

		tx, err := s.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			// One unavailable transaction does not fail the chain.
			logger.Warnw("skipping unavailable solana transaction",
				"signature", sig.Signature, "error", err)
			continue
		}
		if tx == nil || tx.Meta == nil || tx.Meta.Err != nil {
			continue
		}

		legs := walletTokenDeltas(tx.Meta, walletAddress)
		if len(legs) == 0 {
			continue
		}

		events = append(events, SolanaRawEvent{
			Signature: tx.Signature,
			Slot:      tx.Slot,
			BlockTime: tx.BlockTime,
			Legs:      legs,
		})
	}

	// Signatures arrive newest first; emit oldest first.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// CurrentHolding returns the wallet's aggregate balance of a mint.
func (s *SolanaSource) CurrentHolding(ctx context.Context, walletAddress, tokenAddress string) (float64, error) {
	return s.rpc.GetTokenBalance(ctx, walletAddress, tokenAddress)
}

// walletTokenDeltas computes per-mint balance deltas for the wallet from
// pre/post token balance metadata.
func walletTokenDeltas(meta *solana.TransactionMeta, wallet string) []TokenLeg {
	pre := make(map[string]float64)
	for _, b := range meta.PreTokenBalances {
		if b.Owner == wallet {
			pre[b.Mint] += b.UIAmount
		}
	}

	post := make(map[string]float64)
	for _, b := range meta.PostTokenBalances {
		if b.Owner == wallet {
			post[b.Mint] += b.UIAmount
		}
	}

	deltas := make(map[string]float64)
	for mint, amount := range post {
		deltas[mint] = amount - pre[mint]
	}
	for mint, amount := range pre {
		if _, seen := post[mint]; !seen {
			deltas[mint] = -amount
		}
	}

	var legs []TokenLeg
	for mint, delta := range deltas {
		if delta != 0 {
			legs = append(legs, TokenLeg{TokenAddress: mint, Delta: delta})
		}
	}
	sortLegs(legs)
	return legs
}

// IsValidSolanaWallet reports whether the address is a base58-encoded
// 32-byte ed25519 point on the curve. Wallet addresses are on-curve;
// program-derived addresses are not.
func IsValidSolanaWallet(address string) bool {
	decoded, err := base58.Decode(address)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
