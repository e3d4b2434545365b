package domain

import "time"

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType indicates the exchange order type. The Lume CLOB currently only
// supports limit orders.
type OrderType string

const (
	OrderTypeLimit OrderType = "LIMIT"
)

// OrderStatus tracks the exchange-side order lifecycle.
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// OrderArgs are the caller-supplied parameters for a new order. Price and
// size are human-scale decimals (price 0.01-0.99, size in shares).
type OrderArgs struct {
	MarketID string
	Side     OrderSide
	Outcome  string // outcome label, e.g. "YES" or "NO"
	Price    float64
	Size     float64

	// Expiration is an optional unix timestamp. Zero means the builder
	// substitutes its default (one year from signing).
	Expiration int64
}

// SignedOrder is the immutable, exchange-ready order record. All numeric
// fields are decimal strings so no precision is lost across the JSON
// boundary; side and signatureType are the small integers the EIP-712
// payload encodes.
type SignedOrder struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          int    `json:"side"`          // 0 = BUY, 1 = SELL
	SignatureType int    `json:"signatureType"` // 0 = EOA, 1 = PROXY, 2 = GNOSIS_SAFE
	Signature     string `json:"signature"`
}

// Order is an order as reported by the exchange API. Monetary fields are
// strings in the API's atomic (1e6) integer representation.
type Order struct {
	ID           string
	MarketID     string
	OutcomeID    string
	Side         OrderSide
	Status       OrderStatus
	Price        string
	Shares       string
	FilledShares string
	EOAWallet    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlacedOrder is the journal record for an order this process has sent to
// the exchange, used for auditing and restart reconciliation.
type PlacedOrder struct {
	ID        string // exchange order id
	MarketID  string
	OutcomeID string
	Side      OrderSide
	Purpose   string // "ladder" or "hedge"
	Price     float64
	Size      float64
	Salt      string
	Status    OrderStatus
	CreatedAt time.Time
}
