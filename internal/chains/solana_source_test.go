package chains

import (
	"context"
	"errors"
	"testing"

	"oof-moments/internal/domain"
	"oof-moments/internal/solana"
)

// validWallet is a base58-encoded on-curve ed25519 point (the system
// program derives off-curve addresses, ordinary wallets do not).
const validWallet = "4Nd1mYvha5YZ5vyeBhkcCtTE5Y119u7qqTzF2vYxcGSt"

// fakeRPC implements solana.RPCClient over fixed data.
type fakeRPC struct {
	sigs     []solana.SignatureInfo
	txs      map[string]*solana.Transaction
	balances map[string]float64
	err      error
}

func (f *fakeRPC) GetSignaturesForAddress(_ context.Context, _ string, _ int) ([]solana.SignatureInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sigs, nil
}

func (f *fakeRPC) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.txs[signature], nil
}

func (f *fakeRPC) GetTokenBalance(_ context.Context, _, mint string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[mint], nil
}

func swapTx(sig string, slot, blockTime int64, wallet string) *solana.Transaction {
	return &solana.Transaction{
		Signature: sig,
		Slot:      slot,
		BlockTime: blockTime,
		Meta: &solana.TransactionMeta{
			PreTokenBalances: []solana.TokenBalance{
				{Mint: "MintA", Owner: wallet, UIAmount: 100},
				{Mint: "MintA", Owner: "SomeoneElse", UIAmount: 500},
			},
			PostTokenBalances: []solana.TokenBalance{
				{Mint: "MintA", Owner: wallet, UIAmount: 40},
				{Mint: "MintB", Owner: wallet, UIAmount: 7},
				{Mint: "MintA", Owner: "SomeoneElse", UIAmount: 560},
			},
		},
	}
}

func TestSolanaSource_FetchTransactions(t *testing.T) {
	rpc := &fakeRPC{
		// Newest first, as the RPC returns them.
		sigs: []solana.SignatureInfo{
			{Signature: "sig-new", Slot: 200},
			{Signature: "sig-old", Slot: 100},
		},
		txs: map[string]*solana.Transaction{
			"sig-new": swapTx("sig-new", 200, 1700000200, validWallet),
			"sig-old": swapTx("sig-old", 100, 1700000100, validWallet),
		},
	}

	src := NewSolanaSource(rpc)
	events, err := src.FetchTransactions(context.Background(), validWallet)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	// Oldest must come first.
	first, ok := events[0].(SolanaRawEvent)
	if !ok {
		t.Fatalf("unexpected event type %T", events[0])
	}
	if first.Signature != "sig-old" {
		t.Errorf("first event = %s, want sig-old", first.Signature)
	}

	// Only the wallet's own deltas appear, sorted by mint.
	if len(first.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(first.Legs))
	}
	if first.Legs[0].TokenAddress != "MintA" || first.Legs[0].Delta != -60 {
		t.Errorf("leg 0 = %+v", first.Legs[0])
	}
	if first.Legs[1].TokenAddress != "MintB" || first.Legs[1].Delta != 7 {
		t.Errorf("leg 1 = %+v", first.Legs[1])
	}
}

func TestSolanaSource_SkipsFailedAndMissingTransactions(t *testing.T) {
	rpc := &fakeRPC{
		sigs: []solana.SignatureInfo{
			{Signature: "sig-failed", Err: map[string]any{"InstructionError": 1}},
			{Signature: "sig-missing"},
			{Signature: "sig-good"},
		},
		txs: map[string]*solana.Transaction{
			"sig-good": swapTx("sig-good", 100, 1700000100, validWallet),
		},
	}

	src := NewSolanaSource(rpc)
	events, err := src.FetchTransactions(context.Background(), validWallet)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].(SolanaRawEvent).Signature != "sig-good" {
		t.Errorf("wrong event survived: %+v", events[0])
	}
}

func TestSolanaSource_InvalidWallet(t *testing.T) {
	src := NewSolanaSource(&fakeRPC{})

	if _, err := src.FetchTransactions(context.Background(), "not-base58-!!"); err == nil {
		t.Error("expected error for invalid wallet")
	}
}

func TestSolanaSource_RPCErrorPropagates(t *testing.T) {
	src := NewSolanaSource(&fakeRPC{err: errors.New("rpc down")})

	if _, err := src.FetchTransactions(context.Background(), validWallet); err == nil {
		t.Error("expected rpc error to propagate")
	}
}

func TestSolanaSource_CurrentHolding(t *testing.T) {
	rpc := &fakeRPC{balances: map[string]float64{"MintA": 12.5}}
	src := NewSolanaSource(rpc)

	got, err := src.CurrentHolding(context.Background(), validWallet, "MintA")
	if err != nil {
		t.Fatalf("holding: %v", err)
	}
	if got != 12.5 {
		t.Errorf("holding = %f, want 12.5", got)
	}
}

func TestSolanaSource_Chain(t *testing.T) {
	if got := NewSolanaSource(&fakeRPC{}).Chain(); got != domain.ChainSolana {
		t.Errorf("chain = %s", got)
	}
}

func TestIsValidSolanaWallet(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{validWallet, true},
		{"", false},
		{"short", false},
		{"0x8ba1f109551bd432803012645ac136ddd64dba72", false}, // EVM shape
		{"!!!not-base58!!!", false},
	}
	for _, tt := range tests {
		if got := IsValidSolanaWallet(tt.address); got != tt.want {
			t.Errorf("IsValidSolanaWallet(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestIsValidEVMWallet(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"0x8ba1f109551bd432803012645ac136ddd64dba72", true},
		{"0x8BA1F109551BD432803012645AC136DDD64DBA72", true},
		{"8ba1f109551bd432803012645ac136ddd64dba72", false},
		{"0x8ba1f109551bd432803012645ac136ddd64dba7", false}, // 39 chars
		{validWallet, false},
	}
	for _, tt := range tests {
		if got := IsValidEVMWallet(tt.address); got != tt.want {
			t.Errorf("IsValidEVMWallet(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}
