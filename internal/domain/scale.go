package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CollateralDecimals is the atomic scale of the exchange API: prices and
// share quantities cross the wire as integers scaled by 10^6.
const CollateralDecimals = 6

// atomicThreshold separates atomic-scale integer strings from human-scale
// ones. Human prices never exceed 0.99 and human sizes in practice stay
// well below 10,000 shares, while the smallest meaningful atomic value
// (0.01 scaled by 1e6) is 10,000. Mid-range integers are ambiguous; the
// API should tag its own scale instead.
var atomicThreshold = decimal.NewFromInt(10_000)

// ParseAmount interprets a numeric string from the API and returns its
// human-scale decimal value. Integer strings at or above the atomic
// threshold are treated as 10^6-scaled atomic units; everything else is
// already human scale. Malformed input wraps ErrTransport.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("domain: parse amount %q: %w", s, ErrTransport)
	}
	if d.IsInteger() && d.Abs().GreaterThanOrEqual(atomicThreshold) {
		return d.Shift(-CollateralDecimals), nil
	}
	return d, nil
}

// ToAtomicString converts a human-scale decimal to the API's atomic
// integer-string representation, truncating any sub-atomic remainder.
func ToAtomicString(d decimal.Decimal) string {
	return d.Shift(CollateralDecimals).Truncate(0).String()
}
