package hedge

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPendingFillAccumulate(t *testing.T) {
	var pf PendingFill

	pf.Add(dec("3"), dec("0.40"))
	pf.Add(dec("2"), dec("0.50"))

	if !pf.Shares().Equal(dec("5")) {
		t.Errorf("shares = %s, want 5", pf.Shares())
	}
	if !pf.AvgPrice().Equal(dec("0.44")) {
		t.Errorf("avg price = %s, want 0.44", pf.AvgPrice())
	}

	if got := pf.SizeReadyToPlace(dec("5")); !got.Equal(dec("5")) {
		t.Errorf("SizeReadyToPlace(5) = %s, want 5", got)
	}

	pf.Consume(dec("5"))
	if !pf.Shares().IsZero() {
		t.Errorf("shares after full consume = %s, want 0", pf.Shares())
	}
	if !pf.AvgPrice().IsZero() {
		t.Errorf("avg price after full consume = %s, want 0", pf.AvgPrice())
	}
}

func TestPendingFillIgnoresNonPositiveAdd(t *testing.T) {
	var pf PendingFill
	pf.Add(dec("0"), dec("0.5"))
	pf.Add(dec("-1"), dec("0.5"))
	if !pf.Shares().IsZero() {
		t.Errorf("shares = %s, want 0", pf.Shares())
	}
}

func TestPendingFillEmptyAvgPrice(t *testing.T) {
	var pf PendingFill
	if !pf.AvgPrice().IsZero() {
		t.Errorf("empty avg price = %s, want 0", pf.AvgPrice())
	}
}

func TestConsumePartialPreservesAvgPrice(t *testing.T) {
	var pf PendingFill
	pf.Add(dec("7.5"), dec("0.38"))
	pf.Add(dec("4.25"), dec("0.61"))

	before := pf.AvgPrice()
	pf.Consume(dec("6"))
	after := pf.AvgPrice()

	if diff := before.Sub(after).Abs(); diff.GreaterThan(dec("0.0000000001")) {
		t.Errorf("avg price changed on partial consume: before=%s after=%s", before, after)
	}
	if !pf.Shares().Equal(dec("5.75")) {
		t.Errorf("shares = %s, want 5.75", pf.Shares())
	}
}

func TestConsumeOversizeZeroes(t *testing.T) {
	var pf PendingFill
	pf.Add(dec("2"), dec("0.5"))
	pf.Consume(dec("10"))
	if !pf.Shares().IsZero() || !pf.AvgPrice().IsZero() {
		t.Errorf("oversize consume left shares=%s avg=%s", pf.Shares(), pf.AvgPrice())
	}
}

func TestConsumeNonPositiveIsNoop(t *testing.T) {
	var pf PendingFill
	pf.Add(dec("2"), dec("0.5"))
	pf.Consume(dec("0"))
	pf.Consume(dec("-3"))
	if !pf.Shares().Equal(dec("2")) {
		t.Errorf("shares = %s, want 2", pf.Shares())
	}
}

func TestSizeReadyToPlaceFloorsAndThresholds(t *testing.T) {
	var pf PendingFill
	pf.Add(dec("5.019"), dec("0.5"))

	// 5.019 floors to 5.01, above the minimum.
	if got := pf.SizeReadyToPlace(dec("5")); !got.Equal(dec("5.01")) {
		t.Errorf("SizeReadyToPlace(5) = %s, want 5.01", got)
	}
	// Below the minimum the answer is exactly zero, never a partial.
	if got := pf.SizeReadyToPlace(dec("6")); !got.IsZero() {
		t.Errorf("SizeReadyToPlace(6) = %s, want 0", got)
	}
}
