// Package ladder computes two-sided quote ladders for binary prediction
// markets. Both legs are expressed as BUY orders: YES bids quote the YES
// side directly, and NO bids at price p stand in for YES asks at 1-p, so a
// ladder needs only collateral, never inventory.
package ladder

import "github.com/shopspring/decimal"

// Price bounds for any outcome probability quote.
const (
	MinPrice = 0.01
	MaxPrice = 0.99
)

// Level is one rung of a ladder: a BUY at Price for Size shares.
type Level struct {
	Price float64
	Size  float64
}

// Clamp forces p into the valid quote range [MinPrice, MaxPrice].
func Clamp(p float64) float64 {
	if p < MinPrice {
		return MinPrice
	}
	if p > MaxPrice {
		return MaxPrice
	}
	return p
}

// Generator computes ladders around a mid price.
type Generator struct{}

// Generate returns the YES and NO BUY ladders for a market quoted at mid
// with the given spread (as a price fraction, e.g. 0.02) and per-side
// capital in USDC.
//
// Level i bids clamp(bestBid - i*spread) on the YES side and
// clamp(1 - (bestAsk + i*spread)) on the NO side. Capital weights grow
// linearly with distance from the touch, weight_i = (i+1)/sum(1..n), so
// the book carries more depth at worse prices, like a real liquidity
// provider's. Sizes below the caller's minimum are the caller's problem to
// drop; the generator emits every level.
//
// Generate is deterministic: identical arguments produce identical ladders.
func (Generator) Generate(mid, spread float64, numLevels int, capitalYes, capitalNo float64) (yes, no []Level) {
	if numLevels <= 0 {
		return nil, nil
	}

	halfSpread := spread / 2
	bestBid := Clamp(mid - halfSpread)
	bestAsk := Clamp(mid + halfSpread)

	totalWeight := 0
	for i := 0; i < numLevels; i++ {
		totalWeight += i + 1
	}

	dSpread := decimal.NewFromFloat(spread)
	dBestBid := decimal.NewFromFloat(bestBid)
	dBestAsk := decimal.NewFromFloat(bestAsk)
	dTotalWeight := decimal.NewFromInt(int64(totalWeight))
	one := decimal.NewFromInt(1)

	yes = make([]Level, 0, numLevels)
	no = make([]Level, 0, numLevels)

	for i := 0; i < numLevels; i++ {
		step := dSpread.Mul(decimal.NewFromInt(int64(i)))
		weight := decimal.NewFromInt(int64(i + 1)).Div(dTotalWeight)

		bidPrice := clampDecimal(dBestBid.Sub(step))
		askPrice := clampDecimal(dBestAsk.Add(step))
		noPrice := clampDecimal(one.Sub(askPrice))

		yesSize := decimal.NewFromFloat(capitalYes).Mul(weight).Div(bidPrice)
		noSize := decimal.NewFromFloat(capitalNo).Mul(weight).Div(noPrice)

		yes = append(yes, Level{Price: bidPrice.InexactFloat64(), Size: yesSize.InexactFloat64()})
		no = append(no, Level{Price: noPrice.InexactFloat64(), Size: noSize.InexactFloat64()})
	}

	return yes, no
}

var (
	dMinPrice = decimal.NewFromFloat(MinPrice)
	dMaxPrice = decimal.NewFromFloat(MaxPrice)
)

func clampDecimal(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(dMinPrice) {
		return dMinPrice
	}
	if p.GreaterThan(dMaxPrice) {
		return dMaxPrice
	}
	return p
}
