package chains

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"oof-moments/internal/domain"
	"oof-moments/internal/evm"
	"oof-moments/internal/logger"
)

var evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidEVMWallet reports whether the address is a 0x-prefixed 20-byte
// hex address.
func IsValidEVMWallet(address string) bool {
	return evmAddressPattern.MatchString(address)
}

// EVMSource fetches wallet activity and balances from an EVM JSON-RPC
// endpoint. The same implementation serves Base and Avalanche; the chain
// tag decides which raw event variant it emits.
type EVMSource struct {
	chain     domain.Chain
	client    *evm.Client
	fromBlock int64
}

// NewBaseSource creates a source for Base mainnet.
func NewBaseSource(client *evm.Client, fromBlock int64) *EVMSource {
	return &EVMSource{chain: domain.ChainBase, client: client, fromBlock: fromBlock}
}

// NewAvalancheSource creates a source for the Avalanche C-Chain.
func NewAvalancheSource(client *evm.Client, fromBlock int64) *EVMSource {
	return &EVMSource{chain: domain.ChainAvalanche, client: client, fromBlock: fromBlock}
}

// Compile-time interface check.
var _ Source = (*EVMSource)(nil)

// Chain identifies this source.
func (s *EVMSource) Chain() domain.Chain {
	return s.chain
}

// pendingEvent accumulates one transaction's per-token deltas while logs
// are being grouped.
type pendingEvent struct {
	txHash      string
	blockNumber int64
	blockHex    string
	deltas      map[string]float64
}

// FetchTransactions retrieves the wallet's ERC-20 transfer logs, groups
// them by transaction and converts each group into a raw event carrying
// the wallet's token balance deltas.
func (s *EVMSource) FetchTransactions(ctx context.Context, walletAddress string) ([]RawEvent, error) {
	if !IsValidEVMWallet(walletAddress) {
		return nil, fmt.Errorf("invalid %s wallet address %q", s.chain, walletAddress)
	}
	wallet := strings.ToLower(walletAddress)

	logs, err := s.client.TransferLogs(ctx, wallet, s.fromBlock)
	if err != nil {
		return nil, fmt.Errorf("get transfer logs for %s: %w", wallet, err)
	}

	decimalsCache := make(map[string]int)
	pending := make(map[string]*pendingEvent)

	for _, l := range logs {
		if len(l.Topics) < 3 {
			continue
		}
		sender := evm.TopicAddress(l.Topics[1])
		recipient := evm.TopicAddress(l.Topics[2])
		if sender != wallet && recipient != wallet {
			continue
		}

		token := strings.ToLower(l.Address)
		decimals, ok := decimalsCache[token]
		if !ok {
			decimals, err = s.client.TokenDecimals(ctx, token)
			if err != nil {
				// A token with an unreadable decimals() cannot be
				// converted to UI units; skip its transfers.
				logger.Warnw("skipping token with unreadable decimals",
					"chain", s.chain, "token", token, "error", err)
				decimals = -1
			}
			decimalsCache[token] = decimals
		}
		if decimals < 0 {
			continue
		}

		amount, err := evm.ParseHexAmount(l.Data, decimals)
		if err != nil {
			logger.Warnw("skipping transfer log with malformed amount",
				"chain", s.chain, "tx", l.TxHash, "error", err)
			continue
		}

		ev, ok := pending[l.TxHash]
		if !ok {
			blockNumber, err := evm.ParseHexInt(l.BlockNumber)
			if err != nil {
				logger.Warnw("skipping transfer log with malformed block number",
					"chain", s.chain, "tx", l.TxHash, "error", err)
				continue
			}
			ev = &pendingEvent{
				txHash:      l.TxHash,
				blockNumber: blockNumber,
				blockHex:    l.BlockNumber,
				deltas:      make(map[string]float64),
			}
			pending[l.TxHash] = ev
		}

		// A self-transfer has the wallet on both sides and nets to zero.
		if sender == wallet {
			ev.deltas[token] -= amount
		}
		if recipient == wallet {
			ev.deltas[token] += amount
		}
	}

	ordered := make([]*pendingEvent, 0, len(pending))
	for _, ev := range pending {
		ordered = append(ordered, ev)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].blockNumber != ordered[j].blockNumber {
			return ordered[i].blockNumber < ordered[j].blockNumber
		}
		return ordered[i].txHash < ordered[j].txHash
	})

	timestamps := make(map[string]int64)
	var events []RawEvent
	for _, ev := range ordered {
		var legs []TokenLeg
		for token, delta := range ev.deltas {
			if delta != 0 {
				legs = append(legs, TokenLeg{TokenAddress: token, Delta: delta})
			}
		}
		if len(legs) == 0 {
			continue
		}
		sortLegs(legs)

		ts, ok := timestamps[ev.blockHex]
		if !ok {
			ts, err = s.client.BlockTimestamp(ctx, ev.blockHex)
			if err != nil {
				logger.Warnw("skipping transaction in unavailable block",
					"chain", s.chain, "tx", ev.txHash, "error", err)
				continue
			}
			timestamps[ev.blockHex] = ts
		}

		events = append(events, s.newRawEvent(ev, ts, legs))
	}
	return events, nil
}

func (s *EVMSource) newRawEvent(ev *pendingEvent, ts int64, legs []TokenLeg) RawEvent {
	if s.chain == domain.ChainAvalanche {
		return AvalancheRawEvent{
			TxHash:      ev.txHash,
			BlockNumber: ev.blockNumber,
			Timestamp:   ts,
			Legs:        legs,
		}
	}
	return BaseRawEvent{
		TxHash:      ev.txHash,
		BlockNumber: ev.blockNumber,
		Timestamp:   ts,
		Legs:        legs,
	}
}

// CurrentHolding returns the wallet's ERC-20 balance of a token.
func (s *EVMSource) CurrentHolding(ctx context.Context, walletAddress, tokenAddress string) (float64, error) {
	return s.client.ERC20BalanceOf(ctx, strings.ToLower(tokenAddress), strings.ToLower(walletAddress))
}
