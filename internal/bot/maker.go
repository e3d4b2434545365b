package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/ladder"
)

type marketSource interface {
	GetMarket(ctx context.Context, marketID string) (domain.Market, error)
	ListMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error)
}

// MakerParams are the ladder quoting parameters for one run of the maker.
type MakerParams struct {
	// Markets lists the market IDs to quote. Empty means every active market.
	Markets []string

	MidPrice     float64
	Spread       float64 // absolute per-level step, e.g. 0.02
	NumLevels    int
	CapitalYes   float64
	CapitalNo    float64
	MinOrderSize float64
	PollInterval time.Duration
}

// Maker places BUY ladders on both outcomes of each configured market on a
// fixed interval. Placement failures on individual levels are logged and
// skipped so the rest of the ladder still goes out.
type Maker struct {
	markets marketSource
	trader  *Trader
	params  MakerParams
	gen     ladder.Generator
	log     *slog.Logger
}

// NewMaker creates a maker quoting through trader.
func NewMaker(markets marketSource, trader *Trader, params MakerParams, logger *slog.Logger) *Maker {
	return &Maker{
		markets: markets,
		trader:  trader,
		params:  params,
		log:     logger.With(slog.String("component", "maker")),
	}
}

// Run quotes all configured markets immediately, then again every poll
// interval until ctx is cancelled.
func (m *Maker) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.params.PollInterval)
	defer ticker.Stop()

	for {
		m.quoteAll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// QuoteOnce runs a single quoting pass. Used by the one-shot populate mode.
func (m *Maker) QuoteOnce(ctx context.Context) error {
	markets, err := m.resolveMarkets(ctx)
	if err != nil {
		return err
	}
	for i := range markets {
		m.quoteMarket(ctx, &markets[i])
	}
	return nil
}

func (m *Maker) quoteAll(ctx context.Context) {
	markets, err := m.resolveMarkets(ctx)
	if err != nil {
		m.log.Warn("market resolution failed", slog.Any("error", err))
		return
	}
	for i := range markets {
		m.quoteMarket(ctx, &markets[i])
	}
}

func (m *Maker) resolveMarkets(ctx context.Context) ([]domain.Market, error) {
	if len(m.params.Markets) == 0 {
		markets, err := m.markets.ListMarkets(ctx, domain.MarketStatusActive)
		if err != nil {
			return nil, fmt.Errorf("bot: list active markets: %w", err)
		}
		return markets, nil
	}

	markets := make([]domain.Market, 0, len(m.params.Markets))
	for _, id := range m.params.Markets {
		mk, err := m.markets.GetMarket(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("bot: fetch market %s: %w", id, err)
		}
		markets = append(markets, mk)
	}
	return markets, nil
}

func (m *Maker) quoteMarket(ctx context.Context, mk *domain.Market) {
	m.trader.RegisterMarket(mk)

	yes, no := m.gen.Generate(m.params.MidPrice, m.params.Spread, m.params.NumLevels,
		m.params.CapitalYes, m.params.CapitalNo)

	placed := 0
	placed += m.placeLadder(ctx, mk, "YES", yes)
	placed += m.placeLadder(ctx, mk, "NO", no)

	m.log.Info("ladder quoted",
		slog.String("market_id", mk.ID),
		slog.Int("levels", m.params.NumLevels),
		slog.Int("orders_placed", placed))
}

func (m *Maker) placeLadder(ctx context.Context, mk *domain.Market, label string, levels []ladder.Level) int {
	placed := 0
	for _, lv := range levels {
		if lv.Size < m.params.MinOrderSize {
			m.log.Debug("ladder level below minimum size",
				slog.String("market_id", mk.ID),
				slog.String("outcome", label),
				slog.Float64("price", lv.Price),
				slog.Float64("size", lv.Size))
			continue
		}
		_, err := m.trader.Place(ctx, mk, domain.OrderArgs{
			MarketID: mk.ID,
			Side:     domain.OrderSideBuy,
			Outcome:  label,
			Price:    lv.Price,
			Size:     lv.Size,
		}, "ladder")
		if err != nil {
			continue
		}
		placed++
	}
	return placed
}
