package domain

// TransactionKind classifies how a transaction changed the wallet's balance.
type TransactionKind string

const (
	TransactionBuy      TransactionKind = "buy"
	TransactionSell     TransactionKind = "sell"
	TransactionTransfer TransactionKind = "transfer"
)

// TokenTransaction is one observed transfer or swap leg affecting the
// wallet's balance of a token on one chain. Created once per fetch from raw
// chain data; immutable afterwards.
type TokenTransaction struct {
	Chain           Chain           `json:"chain"`
	TokenAddress    string          `json:"tokenAddress"`
	SignatureOrHash string          `json:"signatureOrHash"`
	Timestamp       int64           `json:"timestamp"` // Unix seconds
	Kind            TransactionKind `json:"kind"`
	Amount          float64         `json:"amount"`       // token units, always > 0
	PricePerUnit    float64         `json:"pricePerUnit"` // quote-currency value at execution, 0 if unknown
}
