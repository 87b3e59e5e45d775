package stub

import (
	"context"
	"fmt"

	"oof-moments/internal/domain"
	"oof-moments/internal/pricing"
)

// StubOracle returns fixed in-memory prices and metadata for testing.
// Unknown tokens yield zero prices and empty metadata, matching the
// contract of the real oracle.
// Implements pricing.Oracle interface.
type StubOracle struct {
	current  map[string]float64
	peak     map[string]float64
	metadata map[string]pricing.TokenMetadata
	err      error
}

// NewStubOracle creates a new empty stub oracle.
func NewStubOracle() *StubOracle {
	return &StubOracle{
		current:  make(map[string]float64),
		peak:     make(map[string]float64),
		metadata: make(map[string]pricing.TokenMetadata),
	}
}

// Compile-time interface check.
var _ pricing.Oracle = (*StubOracle)(nil)

// SetPrices sets a token's current and peak price.
func (s *StubOracle) SetPrices(chain domain.Chain, tokenAddress string, current, peak float64) {
	key := oracleKey(chain, tokenAddress)
	s.current[key] = current
	s.peak[key] = peak
}

// SetMetadata sets a token's symbol and name.
func (s *StubOracle) SetMetadata(chain domain.Chain, tokenAddress, symbol, name string) {
	s.metadata[oracleKey(chain, tokenAddress)] = pricing.TokenMetadata{Symbol: symbol, Name: name}
}

// Fail makes every subsequent call return the given error, simulating an
// oracle outage.
func (s *StubOracle) Fail(err error) {
	s.err = err
}

// CurrentPrice returns the configured spot price, 0 for unknown tokens.
func (s *StubOracle) CurrentPrice(_ context.Context, chain domain.Chain, tokenAddress string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.current[oracleKey(chain, tokenAddress)], nil
}

// PeakPrice returns the configured peak price, 0 for unknown tokens.
func (s *StubOracle) PeakPrice(_ context.Context, chain domain.Chain, tokenAddress string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.peak[oracleKey(chain, tokenAddress)], nil
}

// TokenMetadata returns the configured metadata, empty for unknown tokens.
func (s *StubOracle) TokenMetadata(_ context.Context, chain domain.Chain, tokenAddress string) (pricing.TokenMetadata, error) {
	if s.err != nil {
		return pricing.TokenMetadata{}, s.err
	}
	return s.metadata[oracleKey(chain, tokenAddress)], nil
}

func oracleKey(chain domain.Chain, token string) string {
	return fmt.Sprintf("%s|%s", chain, token)
}
