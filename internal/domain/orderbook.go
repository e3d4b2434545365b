package domain

import "github.com/shopspring/decimal"

// BookLevel is a single price+size entry in an orderbook. Values are
// human-scale decimals, already converted from the API's atomic strings.
type BookLevel struct {
	Price  float64
	Shares float64
}

// OrderBook is a snapshot of one outcome's resting orders.
type OrderBook struct {
	Outcome Outcome
	Bids    []BookLevel
	Asks    []BookLevel
}

// Mid returns the midpoint of the best bid and ask. The second return is
// false when either side of the book is empty. The midpoint is computed in
// decimal so books quoted at cent ticks yield an exact cent or half-cent
// value rather than a float artifact.
func (b OrderBook) Mid() (float64, bool) {
	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return 0, false
	}
	mid, _ := decimal.NewFromFloat(b.Bids[0].Price).
		Add(decimal.NewFromFloat(b.Asks[0].Price)).
		Div(decimal.NewFromInt(2)).
		Float64()
	return mid, true
}
