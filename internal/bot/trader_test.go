package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/lumemarkets/lumebot/internal/crypto"
	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/order"
	"github.com/lumemarkets/lumebot/internal/platform/lume"
)

// Well-known hardhat development key, never funded on a live chain.
const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const (
	testProxyWallet = "0x91a1EcC887c2da31cd3C0b6a61e6055f3ED59872"
	testCTFExchange = "0x4fEa4E2B6B90f8940ff9A5C7dd75c1299584522D"
	testNegRiskExch = "0x2cCE4F55DAcab307b48D4d8C1139F1425cCF6759"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMarket() *domain.Market {
	return &domain.Market{
		ID:          "mkt-1",
		ConditionID: "0x" + "11" + "2233445566778899aabbccddeeff00112233445566778899aabbccddeeff",
		Status:      domain.MarketStatusActive,
		Outcomes: []domain.Outcome{
			{ID: "out-yes", Label: "YES", TokenID: "101"},
			{ID: "out-no", Label: "NO", TokenID: "102"},
		},
	}
}

type fakePlacer struct {
	inputs []lume.PlaceOrderInput
	err    error
}

func (f *fakePlacer) PlaceOrder(_ context.Context, input lume.PlaceOrderInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.inputs = append(f.inputs, input)
	return fmt.Sprintf("ord-%d", len(f.inputs)), nil
}

type fakeOrderStore struct {
	created   []domain.PlacedOrder
	createErr error
	statuses  map[string]domain.OrderStatus
	statusErr error
}

func (f *fakeOrderStore) Create(_ context.Context, o domain.PlacedOrder) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id string, st domain.OrderStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	if f.statuses == nil {
		f.statuses = make(map[string]domain.OrderStatus)
	}
	f.statuses[id] = st
	return nil
}

func (f *fakeOrderStore) ListByMarket(context.Context, string, int) ([]domain.PlacedOrder, error) {
	return nil, nil
}

func newTestTrader(t *testing.T, api orderPlacer, journal domain.OrderStore) *Trader {
	t.Helper()
	signer, err := crypto.NewSigner(testKey, 10143)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	builder := order.NewBuilder(signer, 0, 2)
	wallets := Wallets{Proxy: testProxyWallet, EOA: signer.Address().Hex()}
	exch := Exchanges{CTF: testCTFExchange, NegRisk: testNegRiskExch}
	return NewTrader(api, builder, wallets, exch, journal, nil, testLogger())
}

func TestPlaceSubmitsSignedOrder(t *testing.T) {
	api := &fakePlacer{}
	store := &fakeOrderStore{}
	tr := newTestTrader(t, api, store)
	mk := testMarket()

	id, err := tr.Place(context.Background(), mk, domain.OrderArgs{
		MarketID: mk.ID,
		Side:     domain.OrderSideBuy,
		Outcome:  "YES",
		Price:    0.567,
		Size:     10.239,
	}, "ladder")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if id != "ord-1" {
		t.Fatalf("order id = %q, want ord-1", id)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("PlaceOrder called %d times, want 1", len(api.inputs))
	}

	in := api.inputs[0]
	if in.MarketID != "mkt-1" || in.OutcomeID != "out-yes" {
		t.Errorf("routing = %s/%s, want mkt-1/out-yes", in.MarketID, in.OutcomeID)
	}
	if in.Side != domain.OrderSideBuy || in.OrderType != domain.OrderTypeLimit {
		t.Errorf("side/type = %s/%s", in.Side, in.OrderType)
	}
	if in.OrderData.MakerAmount != "5728800" || in.OrderData.TakerAmount != "10230000" {
		t.Errorf("amounts = %s/%s, want 5728800/10230000",
			in.OrderData.MakerAmount, in.OrderData.TakerAmount)
	}
	if in.OrderData.Maker != testProxyWallet {
		t.Errorf("maker = %s, want proxy wallet", in.OrderData.Maker)
	}
	if in.OrderData.Signature == "" {
		t.Error("signature is empty")
	}

	if len(store.created) != 1 {
		t.Fatalf("journal has %d records, want 1", len(store.created))
	}
	rec := store.created[0]
	if rec.ID != "ord-1" || rec.Purpose != "ladder" || rec.Status != domain.OrderStatusOpen {
		t.Errorf("journal record = %+v", rec)
	}
}

func TestPlaceUnknownOutcome(t *testing.T) {
	tr := newTestTrader(t, &fakePlacer{}, nil)
	mk := testMarket()

	_, err := tr.Place(context.Background(), mk, domain.OrderArgs{
		Side: domain.OrderSideBuy, Outcome: "MAYBE", Price: 0.5, Size: 10,
	}, "ladder")
	if !errors.Is(err, domain.ErrOutcomeNotFound) {
		t.Fatalf("err = %v, want ErrOutcomeNotFound", err)
	}
}

func TestPlaceAPIFailureSkipsJournal(t *testing.T) {
	api := &fakePlacer{err: domain.ErrTransport}
	store := &fakeOrderStore{}
	tr := newTestTrader(t, api, store)

	_, err := tr.Place(context.Background(), testMarket(), domain.OrderArgs{
		Side: domain.OrderSideBuy, Outcome: "YES", Price: 0.5, Size: 10,
	}, "hedge")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("journal has %d records, want 0", len(store.created))
	}
}

func TestPlaceJournalFailureDoesNotFailPlacement(t *testing.T) {
	store := &fakeOrderStore{createErr: errors.New("db down")}
	tr := newTestTrader(t, &fakePlacer{}, store)

	_, err := tr.Place(context.Background(), testMarket(), domain.OrderArgs{
		Side: domain.OrderSideBuy, Outcome: "NO", Price: 0.4, Size: 20,
	}, "ladder")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
}

func TestPlaceBuyRequiresRegisteredMarket(t *testing.T) {
	tr := newTestTrader(t, &fakePlacer{}, nil)

	err := tr.PlaceBuy(context.Background(), "mkt-unknown",
		domain.Outcome{ID: "out-no", Label: "NO"}, 0.4, 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPlaceBuyRoutesThroughRegisteredMarket(t *testing.T) {
	api := &fakePlacer{}
	tr := newTestTrader(t, api, nil)
	mk := testMarket()
	tr.RegisterMarket(mk)

	err := tr.PlaceBuy(context.Background(), mk.ID,
		domain.Outcome{ID: "out-no", Label: "NO"}, 0.58, 10)
	if err != nil {
		t.Fatalf("PlaceBuy: %v", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("PlaceOrder called %d times, want 1", len(api.inputs))
	}
	in := api.inputs[0]
	if in.OutcomeID != "out-no" || in.Side != domain.OrderSideBuy {
		t.Errorf("placed %s %s, want out-no BUY", in.OutcomeID, in.Side)
	}
	if in.Price != 0.58 || in.Shares != 10 {
		t.Errorf("price/size = %v/%v, want 0.58/10", in.Price, in.Shares)
	}
}
