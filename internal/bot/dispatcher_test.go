package bot

import (
	"context"
	"testing"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/hedge"
)

type staticMid struct{ mid float64 }

func (s staticMid) Mid(context.Context, string, domain.Outcome) (float64, bool) {
	return s.mid, s.mid > 0
}

type fakeFillStore struct {
	fills []domain.FillEvent
}

func (f *fakeFillStore) Create(_ context.Context, fe domain.FillEvent) error {
	f.fills = append(f.fills, fe)
	return nil
}

func (f *fakeFillStore) ListSince(context.Context, time.Time, int) ([]domain.FillEvent, error) {
	return nil, nil
}

type fakeOrderLister struct {
	calls  []string
	orders map[string][]domain.Order
	err    error
}

func (f *fakeOrderLister) ListMyOrders(_ context.Context, marketID string, _ []domain.OrderStatus) ([]domain.Order, error) {
	f.calls = append(f.calls, marketID)
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[marketID], nil
}

func newTestReactor(t *testing.T, tr *Trader, mk *domain.Market) *hedge.Reactor {
	t.Helper()
	cfg := hedge.Config{Spread: 0.02, DefaultMid: 0.50, MinOrderSize: 5}
	startAt := time.Now().Add(-time.Hour)
	return hedge.NewReactor(mk, cfg, staticMid{mid: 0.50}, tr, startAt, testLogger())
}

func TestDispatchRoutesToOwningMarket(t *testing.T) {
	api := &fakePlacer{}
	tr := newTestTrader(t, api, nil)
	mk := testMarket()
	tr.RegisterMarket(mk)

	fills := &fakeFillStore{}
	d := NewDispatcher(&fakeOrderLister{}, nil, fills, testLogger())
	d.Register(mk.ID, newTestReactor(t, tr, mk))

	upd := domain.OrderUpdate{
		Type: domain.UpdateTypeUpdate,
		Order: domain.Order{
			ID:           "ord-1",
			MarketID:     mk.ID,
			OutcomeID:    "out-yes",
			Side:         domain.OrderSideBuy,
			Status:       domain.OrderStatusPartiallyFilled,
			Price:        "400000",
			Shares:       "50000000",
			FilledShares: "20000000",
			CreatedAt:    time.Now(),
		},
		Timestamp: time.Now(),
	}
	if err := d.Dispatch(context.Background(), upd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(fills.fills) != 1 {
		t.Fatalf("journaled %d fills, want 1", len(fills.fills))
	}
	fe := fills.fills[0]
	if fe.ID == "" {
		t.Error("fill event has no id")
	}
	if fe.Delta != 20 || fe.Price != 0.40 || fe.OutcomeLabel != "YES" {
		t.Errorf("fill event = %+v", fe)
	}

	// 20 new shares at 0.40 clears the 5-share minimum, so a hedge went
	// out on the opposing outcome.
	if len(api.inputs) != 1 {
		t.Fatalf("placed %d hedges, want 1", len(api.inputs))
	}
	if api.inputs[0].OutcomeID != "out-no" {
		t.Errorf("hedged %s, want out-no", api.inputs[0].OutcomeID)
	}
}

func TestDispatchUntrackedMarketIsDropped(t *testing.T) {
	d := NewDispatcher(&fakeOrderLister{}, nil, nil, testLogger())

	err := d.Dispatch(context.Background(), domain.OrderUpdate{
		Order: domain.Order{MarketID: "mkt-elsewhere"},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

func TestDispatchMirrorsStatusIntoJournal(t *testing.T) {
	journal := &fakeOrderStore{}
	d := NewDispatcher(&fakeOrderLister{}, journal, nil, testLogger())

	upd := domain.OrderUpdate{
		Type: domain.UpdateTypeUpdate,
		Order: domain.Order{
			ID:       "ord-1",
			MarketID: "mkt-elsewhere",
			Status:   domain.OrderStatusFilled,
		},
	}
	if err := d.Dispatch(context.Background(), upd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if journal.statuses["ord-1"] != domain.OrderStatusFilled {
		t.Errorf("journal status = %q, want FILLED", journal.statuses["ord-1"])
	}
}

func TestDispatchIgnoresUnjournaledOrders(t *testing.T) {
	journal := &fakeOrderStore{statusErr: domain.ErrNotFound}
	d := NewDispatcher(&fakeOrderLister{}, journal, nil, testLogger())

	err := d.Dispatch(context.Background(), domain.OrderUpdate{
		Order: domain.Order{ID: "ord-foreign", MarketID: "mkt-1", Status: domain.OrderStatusOpen},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

func TestReseedCoversEveryRegisteredMarket(t *testing.T) {
	tr := newTestTrader(t, &fakePlacer{}, nil)
	mkA := testMarket()
	mkB := testMarket()
	mkB.ID = "mkt-2"

	lister := &fakeOrderLister{orders: map[string][]domain.Order{
		mkA.ID: {{
			ID:           "ord-old",
			MarketID:     mkA.ID,
			OutcomeID:    "out-yes",
			Side:         domain.OrderSideBuy,
			Status:       domain.OrderStatusPartiallyFilled,
			FilledShares: "20000000",
			CreatedAt:    time.Now().Add(-2 * time.Hour),
		}},
	}}
	d := NewDispatcher(lister, nil, nil, testLogger())
	d.Register(mkA.ID, newTestReactor(t, tr, mkA))
	d.Register(mkB.ID, newTestReactor(t, tr, mkB))

	if err := d.Reseed(context.Background()); err != nil {
		t.Fatalf("Reseed: %v", err)
	}
	if len(lister.calls) != 2 {
		t.Fatalf("ListMyOrders called %d times, want 2", len(lister.calls))
	}
}

func TestReseedFailurePropagates(t *testing.T) {
	tr := newTestTrader(t, &fakePlacer{}, nil)
	mk := testMarket()

	d := NewDispatcher(&fakeOrderLister{err: domain.ErrTransport}, nil, nil, testLogger())
	d.Register(mk.ID, newTestReactor(t, tr, mk))

	if err := d.Reseed(context.Background()); err == nil {
		t.Fatal("Reseed should propagate listing errors")
	}
}
