// Package order implements the amount/price alignment and signing pipeline
// that turns human price/size pairs into signed, exchange-ready orders.
package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// Alignment precision, in decimal places. Prices and sizes are quoted to
// the cent; the USDC notional leg carries four places before scaling.
const (
	PrecisionPrice    = 2
	PrecisionSize     = 2
	PrecisionNotional = 4

	// CollateralDecimals is the USDC token's decimal count; atomic amounts
	// are human values scaled by 10^CollateralDecimals.
	CollateralDecimals = 6
)

var atomicScale = decimal.New(1, CollateralDecimals)

// Amounts is the atomic-unit output of amount alignment. MakerAmount and
// TakerAmount are non-negative integers at 10^6 scale; Price is the aligned
// (2-decimal) human price actually encoded by the pair.
type Amounts struct {
	MakerAmount int64
	TakerAmount int64
	Price       decimal.Decimal
}

// Calculator aligns a human price/size pair into exchange-legal atomic
// maker/taker amounts. All arithmetic is exact decimal; every rounding step
// floors, so the aligned order never commits more collateral than the
// caller authorized.
type Calculator struct{}

// CalculateAmounts floors price and size to their quoted precision,
// computes the USDC and share legs for the side, floors the USDC leg to
// four decimals, and scales both legs to atomic units by truncation.
// It is a pure function of its inputs.
func (Calculator) CalculateAmounts(side domain.OrderSide, price, size float64) (Amounts, error) {
	alignedPrice := decimal.NewFromFloat(price).Truncate(PrecisionPrice)
	alignedSize := decimal.NewFromFloat(size).Truncate(PrecisionSize)

	if !alignedPrice.IsPositive() {
		return Amounts{}, fmt.Errorf("order: price %v floors to %s: %w", price, alignedPrice, domain.ErrInvalidAmount)
	}
	if !alignedSize.IsPositive() {
		return Amounts{}, fmt.Errorf("order: size %v floors to %s: %w", size, alignedSize, domain.ErrInvalidAmount)
	}

	var rawMaker, rawTaker decimal.Decimal
	switch side {
	case domain.OrderSideBuy:
		// Maker leg is USDC notional, taker leg is shares.
		rawMaker = alignedPrice.Mul(alignedSize).Truncate(PrecisionNotional)
		rawTaker = alignedSize
	case domain.OrderSideSell:
		// Maker leg is shares, taker leg is USDC notional.
		rawMaker = alignedSize
		rawTaker = alignedPrice.Mul(alignedSize).Truncate(PrecisionNotional)
	default:
		return Amounts{}, fmt.Errorf("order: side must be BUY or SELL, got %q: %w", side, domain.ErrInvalidAmount)
	}

	return Amounts{
		MakerAmount: rawMaker.Mul(atomicScale).IntPart(),
		TakerAmount: rawTaker.Mul(atomicScale).IntPart(),
		Price:       alignedPrice,
	}, nil
}
