// Package hedge reacts to fills on one leg of a binary market by placing
// opposing orders on the other leg. It accumulates filled-but-unhedged
// shares per outcome and drives a per-order state machine that separates
// pre-existing fills from fills earned during this process's lifetime.
package hedge

import "github.com/shopspring/decimal"

// PendingFill accumulates filled-but-unhedged shares for one outcome,
// tracking total shares and total notional so the weighted average fill
// price is always recoverable. Not safe for concurrent use; each instance
// belongs to a single market's fill-dispatch goroutine.
type PendingFill struct {
	shares   decimal.Decimal
	notional decimal.Decimal
}

// Add records a fill of the given shares at the given price. Non-positive
// share counts are ignored.
func (p *PendingFill) Add(shares, price decimal.Decimal) {
	if shares.Sign() <= 0 {
		return
	}
	p.shares = p.shares.Add(shares)
	p.notional = p.notional.Add(price.Mul(shares))
}

// Shares returns the unconsumed share count.
func (p *PendingFill) Shares() decimal.Decimal {
	return p.shares
}

// AvgPrice returns the weighted average price of the pending shares, or
// zero when nothing is pending.
func (p *PendingFill) AvgPrice() decimal.Decimal {
	if p.shares.Sign() <= 0 {
		return decimal.Zero
	}
	return p.notional.Div(p.shares)
}

// SizeReadyToPlace floors the pending shares to 2 decimals and returns the
// floored value if it meets minSize, else zero (not enough accumulated yet).
func (p *PendingFill) SizeReadyToPlace(minSize decimal.Decimal) decimal.Decimal {
	floored := p.shares.RoundFloor(2)
	if floored.LessThan(minSize) {
		return decimal.Zero
	}
	return floored
}

// Consume removes size shares after a hedge order for them has been
// confirmed sent, reducing notional proportionally so the average price of
// the remainder is unchanged. Must not be called when the send failed; the
// shares stay pending for retry on the next fill. Consuming at least the
// full balance zeroes the accumulator.
func (p *PendingFill) Consume(size decimal.Decimal) {
	if size.Sign() <= 0 || p.shares.Sign() <= 0 {
		return
	}
	if size.GreaterThanOrEqual(p.shares) {
		p.shares = decimal.Zero
		p.notional = decimal.Zero
		return
	}
	p.notional = p.notional.Sub(p.notional.Mul(size).Div(p.shares))
	p.shares = p.shares.Sub(size)
}
