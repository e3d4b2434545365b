// Package feed maintains the real-time order-update stream: it owns the
// reconnect policy, reseeds fill baselines before every subscription, and
// dispatches updates to their market handlers in receipt order.
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
)

const (
	// defaultInitialBackoff is the first reconnect delay.
	defaultInitialBackoff = time.Second

	// defaultMaxBackoff caps the doubling.
	defaultMaxBackoff = 30 * time.Second
)

// Session is one live, authenticated subscription to the order-update
// stream. Updates closes when the stream ends, however it ends.
type Session struct {
	Updates <-chan domain.OrderUpdate
	Close   func()
}

// OrderFeed runs the subscribe-consume-reconnect cycle. Reseed runs before
// every (re)connection so the first post-reconnect update is interpreted
// against a fresh baseline instead of being double-counted as new fill.
type OrderFeed struct {
	// Reseed refreshes fill baselines from current open-order state.
	Reseed func(ctx context.Context) error

	// Dial opens an authenticated connection and subscription.
	Dial func(ctx context.Context) (Session, error)

	// Dispatch routes one update to its market handler. Errors are logged
	// and the stream continues; one bad update must not kill the feed.
	Dispatch func(ctx context.Context, upd domain.OrderUpdate) error

	// InitialBackoff and MaxBackoff override the reconnect delays when
	// non-zero. Tests shrink them.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Log *slog.Logger
}

// Run drives the feed until ctx is cancelled. Each cycle: reseed baselines,
// dial, consume updates in order until the stream ends, then back off and
// repeat. The backoff starts over at the initial delay once a connection is
// established on top of a successful reseed.
func (f *OrderFeed) Run(ctx context.Context) error {
	initial := f.InitialBackoff
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	max := f.MaxBackoff
	if max <= 0 {
		max = defaultMaxBackoff
	}

	log := f.Log.With(slog.String("component", "order_feed"))
	log.Info("order feed started")
	defer log.Info("order feed stopped")

	delay := initial
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := f.Reseed(ctx); err != nil {
			log.Warn("baseline reseed failed", slog.String("error", err.Error()))
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			delay = nextDelay(delay, max)
			continue
		}

		session, err := f.Dial(ctx)
		if err != nil {
			log.Warn("subscription connect failed", slog.String("error", err.Error()))
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			delay = nextDelay(delay, max)
			continue
		}

		// Clean post-reseed connection: the next failure starts the
		// backoff ladder from the bottom again.
		delay = initial
		log.Info("subscribed to order updates")

		f.consume(ctx, session.Updates)
		session.Close()

		if err := ctx.Err(); err != nil {
			return err
		}
		log.Warn("order update stream ended, reconnecting")

		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
		delay = nextDelay(delay, max)
	}
}

// consume dispatches updates one at a time, in receipt order, until the
// stream closes or ctx is cancelled.
func (f *OrderFeed) consume(ctx context.Context, updates <-chan domain.OrderUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if err := f.Dispatch(ctx, upd); err != nil {
				f.Log.Warn("order update dispatch failed",
					slog.String("order_id", upd.Order.ID),
					slog.String("error", err.Error()))
			}
		}
	}
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
