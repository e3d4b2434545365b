package lume

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// wireOutcome is an outcome as returned by the API.
type wireOutcome struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	TokenID string `json:"tokenId"`
}

func (o wireOutcome) toDomain() domain.Outcome {
	return domain.Outcome{ID: o.ID, Label: o.Label, TokenID: o.TokenID}
}

// wireMarket is a market as returned by the API.
type wireMarket struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Question    string        `json:"question"`
	ConditionID string        `json:"conditionId"`
	NegRisk     bool          `json:"negRisk"`
	Status      string        `json:"status"`
	Outcomes    []wireOutcome `json:"outcomes"`
}

func (m wireMarket) toDomain() domain.Market {
	outcomes := make([]domain.Outcome, 0, len(m.Outcomes))
	for _, o := range m.Outcomes {
		if o.ID == "" {
			continue
		}
		outcomes = append(outcomes, o.toDomain())
	}
	return domain.Market{
		ID:          m.ID,
		Slug:        m.Slug,
		Question:    m.Question,
		ConditionID: m.ConditionID,
		NegRisk:     m.NegRisk,
		Status:      domain.MarketStatus(m.Status),
		Outcomes:    outcomes,
	}
}

// wireOrder is an order as returned by queries and subscriptions. Monetary
// fields stay strings; scale interpretation happens at the consumer via
// domain.ParseAmount.
type wireOrder struct {
	ID           string `json:"id"`
	MarketID     string `json:"marketId"`
	OutcomeID    string `json:"outcomeId"`
	Side         string `json:"side"`
	Status       string `json:"status"`
	Price        string `json:"price"`
	Shares       string `json:"shares"`
	FilledShares string `json:"filledShares"`
	EOAWallet    string `json:"eoaWallet"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func (o wireOrder) toDomain() (domain.Order, error) {
	createdAt, err := parseTimestamp(o.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("lume: order %s createdAt: %w", o.ID, err)
	}
	// updatedAt is informational; tolerate its absence.
	updatedAt, _ := parseTimestamp(o.UpdatedAt)

	return domain.Order{
		ID:           o.ID,
		MarketID:     o.MarketID,
		OutcomeID:    o.OutcomeID,
		Side:         domain.OrderSide(o.Side),
		Status:       domain.OrderStatus(o.Status),
		Price:        o.Price,
		Shares:       o.Shares,
		FilledShares: o.FilledShares,
		EOAWallet:    o.EOAWallet,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// wireBookLevel is one price level of an order book.
type wireBookLevel struct {
	Price  string `json:"price"`
	Shares string `json:"shares"`
}

func (l wireBookLevel) toDomain() (domain.BookLevel, error) {
	price, err := domain.ParseAmount(l.Price)
	if err != nil {
		return domain.BookLevel{}, fmt.Errorf("lume: book price: %w", err)
	}
	shares, err := domain.ParseAmount(l.Shares)
	if err != nil {
		return domain.BookLevel{}, fmt.Errorf("lume: book shares: %w", err)
	}
	return domain.BookLevel{
		Price:  price.InexactFloat64(),
		Shares: shares.InexactFloat64(),
	}, nil
}

// wireOrderUpdate is one myOrderUpdates subscription event.
type wireOrderUpdate struct {
	Type      string    `json:"type"`
	Order     wireOrder `json:"order"`
	Timestamp string    `json:"timestamp"`
	Sequence  string    `json:"sequence"`
}

// wirePositionUpdate is one myPositionUpdates subscription event.
type wirePositionUpdate struct {
	Type     string `json:"type"`
	Position struct {
		ID           string      `json:"id"`
		MarketID     string      `json:"marketId"`
		Outcome      wireOutcome `json:"outcome"`
		Shares       string      `json:"shares"`
		AveragePrice string      `json:"averagePrice"`
	} `json:"position"`
	Timestamp string `json:"timestamp"`
	Sequence  string `json:"sequence"`
}

// WalletAuthChallenge is the server-issued challenge for WebSocket wallet
// authentication. The domain has no verifying contract.
type WalletAuthChallenge struct {
	Nonce     string
	ExpiresAt string
	Domain    struct {
		Name    string
		Version string
		ChainID int
	}
}

// PlaceOrderInput is everything the placeOrder mutation needs. Price and
// Shares are human-scale; the client converts them to the API's atomic
// integer strings.
type PlaceOrderInput struct {
	MarketID  string
	OutcomeID string
	Side      domain.OrderSide
	OrderType domain.OrderType
	Price     float64
	Shares    float64
	EOAWallet string
	OrderData domain.SignedOrder
}

// parseTimestamp accepts the RFC 3339 variants the API emits.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp: %w", domain.ErrTransport)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: %w", s, domain.ErrTransport)
}
