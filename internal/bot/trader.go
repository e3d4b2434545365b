// Package bot wires the trading components into running loops: ladder
// quoting, per-market hedging, and collateral merging. Everything here
// composes the lower layers (order building, the GraphQL client, the chain
// executor) behind small interfaces so each loop can be tested with fakes.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/notify"
	"github.com/lumemarkets/lumebot/internal/order"
	"github.com/lumemarkets/lumebot/internal/platform/lume"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input lume.PlaceOrderInput) (string, error)
}

// Wallets identifies the two addresses an order carries: the funding
// wallet orders settle against and the EOA that signs them.
type Wallets struct {
	Proxy string
	EOA   string
}

// Exchanges holds the verifying contract addresses for the two exchange
// deployments. Negative-risk markets settle on a separate exchange.
type Exchanges struct {
	CTF     string
	NegRisk string
}

// Trader signs and places orders for registered markets, journaling each
// confirmed placement. It implements the hedging pipeline's placer: PlaceBuy
// returns nil only when the exchange acknowledged the order.
type Trader struct {
	api      orderPlacer
	builder  *order.Builder
	wallets  Wallets
	exch     Exchanges
	journal  domain.OrderStore
	notifier *notify.Notifier
	log      *slog.Logger

	mu      sync.RWMutex
	markets map[string]*domain.Market
}

// NewTrader creates a trader. journal and notifier may be nil.
func NewTrader(api orderPlacer, builder *order.Builder, wallets Wallets, exch Exchanges, journal domain.OrderStore, notifier *notify.Notifier, logger *slog.Logger) *Trader {
	return &Trader{
		api:      api,
		builder:  builder,
		wallets:  wallets,
		exch:     exch,
		journal:  journal,
		notifier: notifier,
		log:      logger.With(slog.String("component", "trader")),
		markets:  make(map[string]*domain.Market),
	}
}

// RegisterMarket makes a market known to the trader so later placements
// can resolve its outcomes and exchange deployment by id.
func (t *Trader) RegisterMarket(m *domain.Market) {
	t.mu.Lock()
	t.markets[m.ID] = m
	t.mu.Unlock()
}

func (t *Trader) market(id string) (*domain.Market, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.markets[id]
	return m, ok
}

// Place signs and submits one order. purpose tags the journal record
// ("ladder" or "hedge"). The returned id is the exchange order id.
func (t *Trader) Place(ctx context.Context, market *domain.Market, args domain.OrderArgs, purpose string) (string, error) {
	outcome, ok := market.OutcomeByLabel(args.Outcome)
	if !ok {
		return "", fmt.Errorf("bot: market %s outcome %q: %w", market.ID, args.Outcome, domain.ErrOutcomeNotFound)
	}

	exchangeAddr := t.exch.CTF
	if market.NegRisk {
		exchangeAddr = t.exch.NegRisk
	}

	signed, err := t.builder.BuildAndSignOrder(t.wallets.Proxy, args, outcome.ID, outcome.TokenID, exchangeAddr, 0)
	if err != nil {
		return "", fmt.Errorf("bot: build order: %w", err)
	}

	id, err := t.api.PlaceOrder(ctx, lume.PlaceOrderInput{
		MarketID:  market.ID,
		OutcomeID: outcome.ID,
		Side:      args.Side,
		OrderType: domain.OrderTypeLimit,
		Price:     args.Price,
		Shares:    args.Size,
		EOAWallet: t.wallets.EOA,
		OrderData: signed,
	})
	if err != nil {
		t.log.Warn("order placement failed",
			slog.String("market_id", market.ID),
			slog.String("outcome", args.Outcome),
			slog.String("purpose", purpose),
			slog.Any("error", err))
		t.notifier.Notify(ctx, notify.EventOrderFailed, "Order failed",
			fmt.Sprintf("%s %s %s %.2f x %.2f: %v", purpose, market.ID, args.Outcome, args.Price, args.Size, err))
		return "", fmt.Errorf("bot: place order: %w", err)
	}

	t.log.Info("order placed",
		slog.String("order_id", id),
		slog.String("market_id", market.ID),
		slog.String("outcome", args.Outcome),
		slog.String("side", string(args.Side)),
		slog.Float64("price", args.Price),
		slog.Float64("size", args.Size),
		slog.String("purpose", purpose))

	if t.journal != nil {
		rec := domain.PlacedOrder{
			ID:        id,
			MarketID:  market.ID,
			OutcomeID: outcome.ID,
			Side:      args.Side,
			Purpose:   purpose,
			Price:     args.Price,
			Size:      args.Size,
			Salt:      signed.Salt,
			Status:    domain.OrderStatusOpen,
			CreatedAt: time.Now().UTC(),
		}
		if jerr := t.journal.Create(ctx, rec); jerr != nil {
			t.log.Warn("order journal write failed", slog.String("order_id", id), slog.Any("error", jerr))
		}
	}
	return id, nil
}

// PlaceBuy places a hedge BUY on the given outcome.
func (t *Trader) PlaceBuy(ctx context.Context, marketID string, outcome domain.Outcome, price, size float64) error {
	market, ok := t.market(marketID)
	if !ok {
		return fmt.Errorf("bot: market %s not registered: %w", marketID, domain.ErrNotFound)
	}

	_, err := t.Place(ctx, market, domain.OrderArgs{
		MarketID: marketID,
		Side:     domain.OrderSideBuy,
		Outcome:  outcome.Label,
		Price:    price,
		Size:     size,
	}, "hedge")
	if err != nil {
		return err
	}

	t.notifier.Notify(ctx, notify.EventHedgePlaced, "Hedge placed",
		fmt.Sprintf("%s %s BUY %.2f x %.2f", marketID, outcome.Label, price, size))
	return nil
}

// newFillID returns the journal id for a fill event.
func newFillID() string {
	return uuid.NewString()
}
