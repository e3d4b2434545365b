package domain

import "time"

// UpdateType is the change kind carried by a subscription event.
type UpdateType string

const (
	UpdateTypeInsert UpdateType = "INSERT"
	UpdateTypeUpdate UpdateType = "UPDATE"
	UpdateTypeDelete UpdateType = "DELETE"
)

// OrderUpdate is a real-time change to one of the account's orders.
type OrderUpdate struct {
	Type      UpdateType
	Order     Order
	Timestamp time.Time
	Sequence  string
}

// PositionUpdate is a real-time change to one of the account's positions.
type PositionUpdate struct {
	Type         UpdateType
	PositionID   string
	MarketID     string
	Outcome      Outcome
	Shares       string
	AveragePrice string
	Timestamp    time.Time
	Sequence     string
}

// FillEvent is a positive fill delta derived from consecutive OrderUpdates
// for the same order. It is what the hedging pipeline journals and archives.
type FillEvent struct {
	ID           string
	OrderID      string
	MarketID     string
	OutcomeLabel string
	Side         OrderSide
	Delta        float64 // newly filled shares since the previous update
	Price        float64
	ObservedAt   time.Time
}
