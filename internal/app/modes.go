package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumemarkets/lumebot/internal/bot"
	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/feed"
	"github.com/lumemarkets/lumebot/internal/hedge"
	"github.com/lumemarkets/lumebot/internal/notify"
	"github.com/lumemarkets/lumebot/internal/platform/lume"
)

// PopulateMode seeds the configured books with one ladder pass and exits.
// Continuous quoting belongs to full mode.
func (a *App) PopulateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting populate mode")
	return a.newMaker(deps).QuoteOnce(ctx)
}

// HedgeMode runs the order-update feed with a hedge reactor per market.
func (a *App) HedgeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting hedge mode")

	orderFeed, err := a.buildHedgePipeline(ctx, deps)
	if err != nil {
		return err
	}
	return orderFeed.Run(ctx)
}

// MergeMode runs the collateral-merge sweep.
func (a *App) MergeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting merge mode")

	merger, err := a.newMerger(deps)
	if err != nil {
		return err
	}
	return merger.Run(ctx)
}

// FullMode runs every enabled component concurrently: the ladder maker, the
// hedging feed, the merge sweep, and the fill archiver.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	maker := a.newMaker(deps)
	g.Go(func() error {
		return maker.Run(ctx)
	})

	if a.cfg.Hedge.Enabled {
		orderFeed, err := a.buildHedgePipeline(ctx, deps)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return orderFeed.Run(ctx)
		})
	}

	if a.cfg.Merge.Enabled && deps.ChainExec != nil {
		merger, err := a.newMerger(deps)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return merger.Run(ctx)
		})
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.Run(ctx)
		})
	}

	return g.Wait()
}

func (a *App) newMaker(deps *Dependencies) *bot.Maker {
	params := bot.MakerParams{
		Markets:      a.cfg.Maker.Markets,
		MidPrice:     a.cfg.Maker.MidPrice,
		Spread:       float64(a.cfg.Maker.SpreadBps) / 10_000,
		NumLevels:    a.cfg.Maker.NumLevels,
		CapitalYes:   a.cfg.Maker.CapitalYes,
		CapitalNo:    a.cfg.Maker.CapitalNo,
		MinOrderSize: a.cfg.Maker.MinOrderSize,
		PollInterval: a.cfg.Maker.PollInterval.Duration,
	}
	return bot.NewMaker(deps.API, deps.Trader, params, a.logger)
}

func (a *App) newMerger(deps *Dependencies) (*bot.Merger, error) {
	if deps.ChainExec == nil {
		return nil, fmt.Errorf("app: merge mode requires the chain executor")
	}
	listMarkets := func(ctx context.Context) ([]domain.Market, error) {
		return a.resolveMarkets(ctx, deps)
	}
	params := bot.MergeParams{
		CheckInterval: a.cfg.Merge.CheckInterval.Duration,
		MinShares:     a.cfg.Merge.MinShares,
	}
	return bot.NewMerger(deps.ChainExec, deps.LockManager, deps.Notifier,
		deps.ProxyWallet, listMarkets, params, a.logger), nil
}

// buildHedgePipeline resolves the tracked markets, attaches a reactor per
// market, and assembles the reconnecting order feed around them.
func (a *App) buildHedgePipeline(ctx context.Context, deps *Dependencies) (*feed.OrderFeed, error) {
	markets, err := a.resolveMarkets(ctx, deps)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("app: no markets to hedge")
	}

	hedgeCfg := hedge.Config{
		Spread:       a.cfg.Hedge.Spread,
		DefaultMid:   a.cfg.Hedge.DefaultMid,
		MinOrderSize: a.cfg.Hedge.MinSize,
	}
	startAt := time.Now()

	dispatcher := bot.NewDispatcher(deps.API, deps.OrderStore, deps.FillStore, a.logger)
	for i := range markets {
		mk := markets[i]
		deps.Trader.RegisterMarket(&mk)
		reactor := hedge.NewReactor(&mk, hedgeCfg, deps.Mids, deps.Trader, startAt, a.logger)
		dispatcher.Register(mk.ID, reactor)
		a.logger.Info("hedging market",
			slog.String("market_id", mk.ID),
			slog.String("question", mk.Question))
	}

	return &feed.OrderFeed{
		Reseed:   dispatcher.Reseed,
		Dial:     a.dialOrderStream(deps),
		Dispatch: dispatcher.Dispatch,
		Log:      a.logger,
	}, nil
}

// dialOrderStream returns the feed's dial function: a fresh websocket
// client, wallet-auth handshake, and order-update subscription per attempt.
// The first failure of an outage raises a notification; later retries in
// the same outage stay quiet.
func (a *App) dialOrderStream(deps *Dependencies) func(ctx context.Context) (feed.Session, error) {
	notified := false
	return func(ctx context.Context) (feed.Session, error) {
		ws := lume.NewWSClient(a.cfg.Lume.WSURL, deps.API, deps.Signer, a.logger)
		if err := ws.Connect(ctx); err != nil {
			if !notified {
				notified = true
				deps.Notifier.Notify(ctx, notify.EventFeedDown, "Order feed down",
					fmt.Sprintf("websocket connect failed: %v", err))
			}
			return feed.Session{}, err
		}
		updates, err := ws.SubscribeOrderUpdates()
		if err != nil {
			_ = ws.Close()
			return feed.Session{}, err
		}
		notified = false
		return feed.Session{
			Updates: updates,
			Close:   func() { _ = ws.Close() },
		}, nil
	}
}

// resolveMarkets returns the configured markets, or every active market
// when none are listed.
func (a *App) resolveMarkets(ctx context.Context, deps *Dependencies) ([]domain.Market, error) {
	if len(a.cfg.Maker.Markets) == 0 {
		markets, err := deps.API.ListMarkets(ctx, domain.MarketStatusActive)
		if err != nil {
			return nil, fmt.Errorf("app: list active markets: %w", err)
		}
		return markets, nil
	}

	markets := make([]domain.Market, 0, len(a.cfg.Maker.Markets))
	for _, id := range a.cfg.Maker.Markets {
		mk, err := deps.API.GetMarket(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("app: fetch market %s: %w", id, err)
		}
		markets = append(markets, mk)
	}
	return markets, nil
}
