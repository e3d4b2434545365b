package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/hedge"
)

type openOrderLister interface {
	ListMyOrders(ctx context.Context, marketID string, statuses []domain.OrderStatus) ([]domain.Order, error)
}

// Dispatcher routes order updates from the account-wide stream to the
// per-market hedge reactor. It is driven by the feed loop's single
// goroutine, so updates for any one market keep their receipt order.
type Dispatcher struct {
	orders   openOrderLister
	journal  domain.OrderStore
	fills    domain.FillStore
	reactors map[string]*hedge.Reactor
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher. journal and fills may be nil; when
// set, order statuses are mirrored into the journal and every observed
// fill delta is recorded, both best-effort.
func NewDispatcher(orders openOrderLister, journal domain.OrderStore, fills domain.FillStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		orders:   orders,
		journal:  journal,
		fills:    fills,
		reactors: make(map[string]*hedge.Reactor),
		log:      logger.With(slog.String("component", "dispatcher")),
	}
}

// Register attaches a reactor for one market and hooks its fill observer
// into the journal.
func (d *Dispatcher) Register(marketID string, r *hedge.Reactor) {
	if d.fills != nil {
		r.OnFill = d.journalFill
	}
	d.reactors[marketID] = r
}

// Reseed refreshes every reactor's fill baselines from a snapshot of the
// account's open and partially filled orders. The feed loop calls this
// before each (re)subscription.
func (d *Dispatcher) Reseed(ctx context.Context) error {
	statuses := []domain.OrderStatus{domain.OrderStatusOpen, domain.OrderStatusPartiallyFilled}
	for marketID, r := range d.reactors {
		orders, err := d.orders.ListMyOrders(ctx, marketID, statuses)
		if err != nil {
			return fmt.Errorf("bot: reseed market %s: %w", marketID, err)
		}
		r.ReseedBaselines(orders)
		d.log.Debug("baselines reseeded",
			slog.String("market_id", marketID),
			slog.Int("orders", len(orders)))
	}
	return nil
}

// Dispatch mirrors the order's status into the journal and hands the
// update to the owning market's reactor. Updates for markets without a
// registered reactor are dropped after the journal write.
func (d *Dispatcher) Dispatch(ctx context.Context, upd domain.OrderUpdate) error {
	d.journalStatus(ctx, upd.Order)

	r, ok := d.reactors[upd.Order.MarketID]
	if !ok {
		d.log.Debug("update for untracked market", slog.String("market_id", upd.Order.MarketID))
		return nil
	}
	return r.HandleUpdate(ctx, upd)
}

// journalStatus keeps journaled rows in step with the stream. The stream
// covers the whole account, so updates for orders placed outside this
// process come back ErrNotFound and are ignored.
func (d *Dispatcher) journalStatus(ctx context.Context, o domain.Order) {
	if d.journal == nil {
		return
	}
	err := d.journal.UpdateStatus(ctx, o.ID, o.Status)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		d.log.Warn("order status journal write failed",
			slog.String("order_id", o.ID), slog.Any("error", err))
	}
}

func (d *Dispatcher) journalFill(f domain.FillEvent) {
	f.ID = newFillID()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.fills.Create(ctx, f); err != nil {
		d.log.Warn("fill journal write failed", slog.String("order_id", f.OrderID), slog.Any("error", err))
	}
}
