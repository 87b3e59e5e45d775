package stub

import (
	"context"
	"fmt"

	"oof-moments/internal/chains"
	"oof-moments/internal/domain"
)

// StubSource returns fixed in-memory raw events and holdings for one chain.
// Implements chains.Source interface.
type StubSource struct {
	chain    domain.Chain
	events   map[string][]chains.RawEvent // keyed by wallet address
	holdings map[string]float64           // keyed by wallet|token
	err      error
}

// NewStubSource creates a new stub source for the given chain.
func NewStubSource(chain domain.Chain) *StubSource {
	return &StubSource{
		chain:    chain,
		events:   make(map[string][]chains.RawEvent),
		holdings: make(map[string]float64),
	}
}

// Compile-time interface check.
var _ chains.Source = (*StubSource)(nil)

// Chain identifies this source.
func (s *StubSource) Chain() domain.Chain {
	return s.chain
}

// AddEvents appends raw events for a wallet.
func (s *StubSource) AddEvents(walletAddress string, events ...chains.RawEvent) {
	s.events[walletAddress] = append(s.events[walletAddress], events...)
}

// SetHolding sets the wallet's current balance of a token.
func (s *StubSource) SetHolding(walletAddress, tokenAddress string, amount float64) {
	s.holdings[holdingKey(walletAddress, tokenAddress)] = amount
}

// Fail makes every subsequent call return the given error, simulating an
// unavailable chain.
func (s *StubSource) Fail(err error) {
	s.err = err
}

// FetchTransactions returns the wallet's configured events. Returns a copy
// to prevent mutation.
func (s *StubSource) FetchTransactions(_ context.Context, walletAddress string) ([]chains.RawEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	events := s.events[walletAddress]
	result := make([]chains.RawEvent, len(events))
	copy(result, events)
	return result, nil
}

// CurrentHolding returns the configured balance, defaulting to zero.
func (s *StubSource) CurrentHolding(_ context.Context, walletAddress, tokenAddress string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.holdings[holdingKey(walletAddress, tokenAddress)], nil
}

func holdingKey(wallet, token string) string {
	return fmt.Sprintf("%s|%s", wallet, token)
}
