package ladder

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGenerateTwoLevels(t *testing.T) {
	var g Generator
	yes, no := g.Generate(0.5, 0.02, 2, 100, 100)

	if len(yes) != 2 || len(no) != 2 {
		t.Fatalf("expected 2 levels per side, got yes=%d no=%d", len(yes), len(no))
	}

	// best bid 0.49, best ask 0.51; level 1 steps a full spread away.
	if !approxEqual(yes[0].Price, 0.49) {
		t.Errorf("yes[0].Price = %v, want 0.49", yes[0].Price)
	}
	if !approxEqual(yes[1].Price, 0.47) {
		t.Errorf("yes[1].Price = %v, want 0.47", yes[1].Price)
	}
	// NO bids mirror the asks: 1-0.51 and 1-0.53.
	if !approxEqual(no[0].Price, 0.49) {
		t.Errorf("no[0].Price = %v, want 0.49", no[0].Price)
	}
	if !approxEqual(no[1].Price, 0.47) {
		t.Errorf("no[1].Price = %v, want 0.47", no[1].Price)
	}

	// Weights 1/3 and 2/3 of the 100 USDC side budget.
	wantSize0 := (100.0 / 3) / 0.49
	wantSize1 := (200.0 / 3) / 0.47
	if !approxEqual(yes[0].Size, wantSize0) {
		t.Errorf("yes[0].Size = %v, want %v", yes[0].Size, wantSize0)
	}
	if !approxEqual(yes[1].Size, wantSize1) {
		t.Errorf("yes[1].Size = %v, want %v", yes[1].Size, wantSize1)
	}
}

func TestGenerateClampsPrices(t *testing.T) {
	var g Generator
	yes, no := g.Generate(0.02, 0.10, 5, 100, 100)

	for i, lvl := range yes {
		if lvl.Price < MinPrice || lvl.Price > MaxPrice {
			t.Errorf("yes[%d].Price = %v outside [%v, %v]", i, lvl.Price, MinPrice, MaxPrice)
		}
	}
	for i, lvl := range no {
		if lvl.Price < MinPrice || lvl.Price > MaxPrice {
			t.Errorf("no[%d].Price = %v outside [%v, %v]", i, lvl.Price, MinPrice, MaxPrice)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	var g Generator
	yes1, no1 := g.Generate(0.63, 0.04, 4, 250, 175)
	yes2, no2 := g.Generate(0.63, 0.04, 4, 250, 175)

	for i := range yes1 {
		if yes1[i] != yes2[i] {
			t.Errorf("yes[%d] differs between runs: %v vs %v", i, yes1[i], yes2[i])
		}
	}
	for i := range no1 {
		if no1[i] != no2[i] {
			t.Errorf("no[%d] differs between runs: %v vs %v", i, no1[i], no2[i])
		}
	}
}

func TestGenerateWeightsSumToCapital(t *testing.T) {
	var g Generator
	yes, _ := g.Generate(0.5, 0.02, 3, 300, 300)

	spent := 0.0
	for _, lvl := range yes {
		spent += lvl.Price * lvl.Size
	}
	if math.Abs(spent-300) > 1e-6 {
		t.Errorf("notional across YES ladder = %v, want 300", spent)
	}
}

func TestGenerateZeroLevels(t *testing.T) {
	var g Generator
	yes, no := g.Generate(0.5, 0.02, 0, 100, 100)
	if yes != nil || no != nil {
		t.Errorf("expected nil ladders for zero levels, got yes=%v no=%v", yes, no)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0.01},
		{0, 0.01},
		{0.01, 0.01},
		{0.5, 0.5},
		{0.99, 0.99},
		{1.2, 0.99},
	}
	for _, tc := range cases {
		if got := Clamp(tc.in); got != tc.want {
			t.Errorf("Clamp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
