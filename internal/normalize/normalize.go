// Package normalize converts per-chain raw events into the canonical
// transaction stream. It is the single exhaustive-match boundary over the
// raw event union; nothing downstream knows chain-specific shapes.
package normalize

import (
	"math"

	"oof-moments/internal/chains"
	"oof-moments/internal/domain"
	"oof-moments/internal/logger"
	"oof-moments/internal/observability"
)

// AmountEpsilon is the smallest balance delta that counts as activity.
// Smaller deltas are rounding noise from UI-unit conversion.
const AmountEpsilon = 1e-4

// quoteAssets lists, per chain, the tokens treated as the quote side of a
// swap. Their moved amount approximates the USD value of the event, and
// their own legs are priced at 1.0.
var quoteAssets = map[domain.Chain]map[string]bool{
	domain.ChainSolana: {
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": true, // USDC
		"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": true, // USDT
	},
	domain.ChainBase: {
		"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913": true, // USDC
		"0xd9aaec86b65d86f6a7b5b1b0c42ffa531710b6ca": true, // USDbC
	},
	domain.ChainAvalanche: {
		"0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e": true, // USDC
		"0x9702230a8ea53601f5cd2dc00fdbc13d4df4a8c7": true, // USDt
	},
}

// IsQuoteAsset reports whether the token serves as a quote asset on the
// given chain.
func IsQuoteAsset(chain domain.Chain, tokenAddress string) bool {
	return quoteAssets[chain][tokenAddress]
}

// Normalize converts a batch of raw events into canonical transactions.
// Pure aside from logging: malformed events are skipped, never fatal to
// the batch. Output preserves input event order; legs within one event
// are emitted in the order the event carries them.
func Normalize(events []chains.RawEvent) []domain.TokenTransaction {
	var txs []domain.TokenTransaction
	for _, event := range events {
		switch ev := event.(type) {
		case chains.SolanaRawEvent:
			txs = append(txs, normalizeLegs(
				domain.ChainSolana, ev.Signature, ev.BlockTime, ev.Legs)...)
		case chains.BaseRawEvent:
			txs = append(txs, normalizeLegs(
				domain.ChainBase, ev.TxHash, ev.Timestamp, ev.Legs)...)
		case chains.AvalancheRawEvent:
			txs = append(txs, normalizeLegs(
				domain.ChainAvalanche, ev.TxHash, ev.Timestamp, ev.Legs)...)
		default:
			logger.Warnw("skipping raw event of unknown type", "event", event)
		}
	}
	return txs
}

// normalizeLegs emits one transaction per significant leg. Direction
// follows the sign of the wallet's balance delta. The price of a non-quote
// leg is a best-effort estimate: the quote amount moved in the same event
// divided by the leg's token amount, 0 when the event has no quote leg.
func normalizeLegs(chain domain.Chain, id string, timestamp int64, legs []chains.TokenLeg) []domain.TokenTransaction {
	if id == "" || timestamp <= 0 {
		logger.Warnw("skipping malformed raw event",
			"chain", chain, "id", id, "timestamp", timestamp)
		observability.DefaultMetrics.MalformedEventsDropped.
			WithLabelValues(string(chain)).Inc()
		return nil
	}

	quoteMoved := 0.0
	for _, leg := range legs {
		if IsQuoteAsset(chain, leg.TokenAddress) {
			quoteMoved += math.Abs(leg.Delta)
		}
	}

	var txs []domain.TokenTransaction
	for _, leg := range legs {
		amount := math.Abs(leg.Delta)
		if amount < AmountEpsilon {
			continue
		}

		kind := domain.TransactionBuy
		if leg.Delta < 0 {
			kind = domain.TransactionSell
		}

		price := 0.0
		if IsQuoteAsset(chain, leg.TokenAddress) {
			price = 1.0
		} else if quoteMoved > 0 {
			price = quoteMoved / amount
		}

		txs = append(txs, domain.TokenTransaction{
			Chain:           chain,
			TokenAddress:    leg.TokenAddress,
			SignatureOrHash: id,
			Timestamp:       timestamp,
			Kind:            kind,
			Amount:          amount,
			PricePerUnit:    price,
		})
	}
	return txs
}
