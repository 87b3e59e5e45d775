// Package chains defines the per-chain raw event types and the source
// interfaces the analysis engine consumes. Raw events are a tagged union;
// the normalizer is the single exhaustive-match boundary that converts each
// variant into canonical token transactions.
package chains

import "sort"

// TokenLeg is one token balance delta within a raw event, relative to the
// analyzed wallet. A swap produces multiple legs in a single event.
type TokenLeg struct {
	TokenAddress string
	Delta        float64 // positive: wallet balance increased
}

// sortLegs orders legs by token address so events built from map iteration
// are deterministic.
func sortLegs(legs []TokenLeg) {
	sort.Slice(legs, func(i, j int) bool {
		return legs[i].TokenAddress < legs[j].TokenAddress
	})
}

// RawEvent is the sealed union of per-chain raw records.
type RawEvent interface {
	rawEvent()
}

// SolanaRawEvent is one Solana transaction's effect on the wallet, derived
// from pre/post token balance metadata.
type SolanaRawEvent struct {
	Signature string
	Slot      int64
	BlockTime int64 // Unix seconds
	Legs      []TokenLeg
}

func (SolanaRawEvent) rawEvent() {}

// BaseRawEvent is one Base transaction's ERC-20 transfer effect on the wallet.
type BaseRawEvent struct {
	TxHash      string
	BlockNumber int64
	Timestamp   int64 // Unix seconds
	Legs        []TokenLeg
}

func (BaseRawEvent) rawEvent() {}

// AvalancheRawEvent is one Avalanche C-Chain transaction's ERC-20 transfer
// effect on the wallet.
type AvalancheRawEvent struct {
	TxHash      string
	BlockNumber int64
	Timestamp   int64 // Unix seconds
	Legs        []TokenLeg
}

func (AvalancheRawEvent) rawEvent() {}
