package hedge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/ladder"
)

// orderState tracks how much history the reactor has for an order id.
type orderState int

const (
	stateUnseen orderState = iota
	stateBaselined
	stateTracked
)

// MidSource returns the live mid price of an outcome's order book. The
// second return is false when the book is empty or unreachable, in which
// case the reactor falls back to the configured default mid.
type MidSource interface {
	Mid(ctx context.Context, marketID string, outcome domain.Outcome) (float64, bool)
}

// Placer sends a BUY order for an outcome. A nil error means the exchange
// confirmed the placement; anything else leaves the pending fill untouched.
type Placer interface {
	PlaceBuy(ctx context.Context, marketID string, outcome domain.Outcome, price, size float64) error
}

// Config holds the hedging parameters for one market.
type Config struct {
	// Spread is subtracted from the breakeven price 1-avgFill when
	// quoting the opposing leg.
	Spread float64

	// DefaultMid is used when the opposing book has no usable mid.
	DefaultMid float64

	// MinOrderSize is the minimum hedge size in shares; smaller pending
	// balances wait for more fills.
	MinOrderSize float64
}

// Reactor consumes order updates for a single market and places opposing
// BUY orders once enough new fill volume has accumulated. It is not safe
// for concurrent use: all updates for a market must flow through the one
// goroutine that owns its Reactor, in receipt order, because the
// delta-from-baseline computation depends on seeing updates sequentially.
type Reactor struct {
	market  *domain.Market
	cfg     Config
	mids    MidSource
	placer  Placer
	startAt time.Time
	log     *slog.Logger

	states     map[string]orderState
	lastFilled map[string]decimal.Decimal
	pending    map[string]*PendingFill

	// OnFill, when set, observes every positive fill delta after it has
	// been accumulated. Used for journaling; errors there never block
	// hedging.
	OnFill func(domain.FillEvent)
}

// NewReactor builds a reactor for one market. startAt is the bot's start
// time; orders created before it with existing fills are baselined rather
// than hedged.
func NewReactor(market *domain.Market, cfg Config, mids MidSource, placer Placer, startAt time.Time, logger *slog.Logger) *Reactor {
	return &Reactor{
		market:     market,
		cfg:        cfg,
		mids:       mids,
		placer:     placer,
		startAt:    startAt,
		log:        logger.With("component", "hedge", "market_id", market.ID),
		states:     make(map[string]orderState),
		lastFilled: map[string]decimal.Decimal{},
		pending: map[string]*PendingFill{
			"YES": {},
			"NO":  {},
		},
	}
}

// ReseedBaselines replaces the fill baselines from a fresh snapshot of the
// account's open and partially filled orders. Called before every
// (re)subscription to the update stream so the first post-reconnect update
// is read as a delta, not as a brand-new fill of the full reported size.
func (r *Reactor) ReseedBaselines(orders []domain.Order) {
	for _, o := range orders {
		if o.Status != domain.OrderStatusOpen && o.Status != domain.OrderStatusPartiallyFilled {
			continue
		}
		filled, err := domain.ParseAmount(o.FilledShares)
		if err != nil {
			r.log.Warn("skipping order with unparsable filled shares",
				"order_id", o.ID, "filled_shares", o.FilledShares, "error", err)
			continue
		}
		r.states[o.ID] = stateBaselined
		r.lastFilled[o.ID] = filled
	}
	r.log.Info("reseeded fill baselines", "orders", len(orders))
}

// Pending returns the accumulator for an outcome label, or nil for labels
// the reactor does not track.
func (r *Reactor) Pending(label string) *PendingFill {
	return r.pending[label]
}

// HandleUpdate processes one order update. It may place a hedge order as a
// side effect. Errors are reported to the caller for logging; the reactor's
// state is always left consistent, so the caller just continues its loop.
func (r *Reactor) HandleUpdate(ctx context.Context, upd domain.OrderUpdate) error {
	o := upd.Order
	if o.Side != domain.OrderSideBuy {
		return nil
	}

	outcome, ok := r.market.OutcomeByID(o.OutcomeID)
	if !ok {
		return nil
	}
	pf, tracked := r.pending[outcome.Label]
	if !tracked {
		return nil
	}

	filled, err := domain.ParseAmount(o.FilledShares)
	if err != nil {
		return fmt.Errorf("hedge: order %s: %w", o.ID, err)
	}

	if r.states[o.ID] == stateUnseen {
		if filled.Sign() > 0 && o.CreatedAt.Before(r.startAt) {
			// Pre-existing fill from before this run. Hedging it
			// would double-count a position the operator may have
			// already covered.
			r.states[o.ID] = stateBaselined
			r.lastFilled[o.ID] = filled
			r.log.Info("baselined pre-existing order",
				"order_id", o.ID, "filled_shares", filled)
			return nil
		}
		r.states[o.ID] = stateTracked
		r.lastFilled[o.ID] = decimal.Zero
	}

	delta := filled.Sub(r.lastFilled[o.ID])
	r.lastFilled[o.ID] = filled
	if delta.Sign() <= 0 {
		return nil
	}

	price, err := domain.ParseAmount(o.Price)
	if err != nil {
		return fmt.Errorf("hedge: order %s: %w", o.ID, err)
	}
	pf.Add(delta, price)
	r.log.Info("fill accumulated",
		"order_id", o.ID,
		"outcome", outcome.Label,
		"delta", delta,
		"price", price,
		"pending", pf.Shares())

	if r.OnFill != nil {
		r.OnFill(domain.FillEvent{
			OrderID:      o.ID,
			MarketID:     o.MarketID,
			OutcomeLabel: outcome.Label,
			Side:         o.Side,
			Delta:        delta.InexactFloat64(),
			Price:        price.InexactFloat64(),
			ObservedAt:   upd.Timestamp,
		})
	}

	return r.placeHedge(ctx, outcome.Label, pf)
}

// placeHedge drains the accumulator into one opposing BUY order if enough
// is pending. The accumulator is consumed only after confirmed placement.
func (r *Reactor) placeHedge(ctx context.Context, filledLabel string, pf *PendingFill) error {
	size := pf.SizeReadyToPlace(decimal.NewFromFloat(r.cfg.MinOrderSize))
	if size.Sign() <= 0 {
		return nil
	}

	opposingLabel := "NO"
	if filledLabel == "NO" {
		opposingLabel = "YES"
	}
	opposing, ok := r.market.OutcomeByLabel(opposingLabel)
	if !ok {
		return fmt.Errorf("hedge: market %s outcome %s: %w", r.market.ID, opposingLabel, domain.ErrOutcomeNotFound)
	}

	mid, ok := r.mids.Mid(ctx, r.market.ID, opposing)
	if !ok {
		mid = r.cfg.DefaultMid
	}

	// Quote no worse than spread-adjusted breakeven, no more aggressive
	// than the live market.
	breakeven := ladder.Clamp(1 - pf.AvgPrice().InexactFloat64() - r.cfg.Spread)
	hedgePrice := breakeven
	if mid < hedgePrice {
		hedgePrice = mid
	}
	hedgePrice = ladder.Clamp(hedgePrice)

	sizeF := size.InexactFloat64()
	if err := r.placer.PlaceBuy(ctx, r.market.ID, opposing, hedgePrice, sizeF); err != nil {
		r.log.Warn("hedge placement failed, retaining pending fills",
			"outcome", opposingLabel,
			"price", hedgePrice,
			"size", sizeF,
			"error", err)
		return fmt.Errorf("hedge: place %s %s: %w", r.market.ID, opposingLabel, err)
	}

	pf.Consume(size)
	r.log.Info("hedge placed",
		"outcome", opposingLabel,
		"price", hedgePrice,
		"size", sizeF,
		"remaining_pending", pf.Shares())
	return nil
}
