package domain

// Chain identifies a blockchain network supported by the analysis engine.
type Chain string

const (
	ChainSolana    Chain = "solana"
	ChainBase      Chain = "base"
	ChainAvalanche Chain = "avalanche"
)

// AllChains returns every supported chain in canonical order.
func AllChains() []Chain {
	return []Chain{ChainSolana, ChainBase, ChainAvalanche}
}

// Valid reports whether c is a known chain.
func (c Chain) Valid() bool {
	switch c {
	case ChainSolana, ChainBase, ChainAvalanche:
		return true
	}
	return false
}
