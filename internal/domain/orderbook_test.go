package domain

import "testing"

func TestOrderBookMid(t *testing.T) {
	cases := []struct {
		name   string
		book   OrderBook
		want   float64
		wantOK bool
	}{
		{
			name: "cent ticks yield an exact midpoint",
			book: OrderBook{
				Bids: []BookLevel{{Price: 0.40, Shares: 100}},
				Asks: []BookLevel{{Price: 0.44, Shares: 100}},
			},
			want:   0.42,
			wantOK: true,
		},
		{
			name: "half cent midpoint",
			book: OrderBook{
				Bids: []BookLevel{{Price: 0.49, Shares: 10}},
				Asks: []BookLevel{{Price: 0.50, Shares: 10}},
			},
			want:   0.495,
			wantOK: true,
		},
		{
			name: "no bids",
			book: OrderBook{Asks: []BookLevel{{Price: 0.50, Shares: 10}}},
		},
		{
			name: "no asks",
			book: OrderBook{Bids: []BookLevel{{Price: 0.50, Shares: 10}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mid, ok := tc.book.Mid()
			if ok != tc.wantOK || mid != tc.want {
				t.Errorf("Mid() = %v, %v, want %v, %v", mid, ok, tc.want, tc.wantOK)
			}
		})
	}
}
