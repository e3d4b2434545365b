package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/notify"
)

type chainMerger interface {
	GetTokenBalances(ctx context.Context, owner string, tokenIDs []*big.Int) ([]*big.Int, error)
	ExecuteMerge(ctx context.Context, conditionID string, negRisk bool, amount *big.Int) (string, error)
}

// MergeParams configure the collateral-merge sweep.
type MergeParams struct {
	CheckInterval time.Duration
	MinShares     float64 // minimum mergeable pair size, human scale
}

// Merger periodically sweeps each tracked market for matched YES/NO token
// balances and merges them back into collateral. Each market is guarded by
// a distributed lock so concurrent bot processes never double-merge.
type Merger struct {
	chain       chainMerger
	locks       domain.LockManager
	notifier    *notify.Notifier
	owner       string
	listMarkets func(ctx context.Context) ([]domain.Market, error)
	params      MergeParams
	log         *slog.Logger
}

// NewMerger creates a merger sweeping the balances of owner. locks and
// notifier may be nil.
func NewMerger(chain chainMerger, locks domain.LockManager, notifier *notify.Notifier, owner string,
	listMarkets func(ctx context.Context) ([]domain.Market, error), params MergeParams, logger *slog.Logger) *Merger {
	return &Merger{
		chain:       chain,
		locks:       locks,
		notifier:    notifier,
		owner:       owner,
		listMarkets: listMarkets,
		params:      params,
		log:         logger.With(slog.String("component", "merger")),
	}
}

// Run sweeps immediately, then again every check interval until ctx is
// cancelled.
func (m *Merger) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.params.CheckInterval)
	defer ticker.Stop()

	for {
		m.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Merger) sweep(ctx context.Context) {
	markets, err := m.listMarkets(ctx)
	if err != nil {
		m.log.Warn("market listing failed", slog.Any("error", err))
		return
	}
	for i := range markets {
		if err := m.sweepMarket(ctx, &markets[i]); err != nil {
			m.log.Warn("merge sweep failed",
				slog.String("market_id", markets[i].ID),
				slog.Any("error", err))
		}
	}
}

func (m *Merger) sweepMarket(ctx context.Context, mk *domain.Market) error {
	if len(mk.Outcomes) != 2 {
		return nil
	}

	if m.locks != nil {
		release, err := m.locks.Acquire(ctx, "merge:"+mk.ID, m.params.CheckInterval)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				m.log.Debug("merge lock held elsewhere", slog.String("market_id", mk.ID))
				return nil
			}
			return fmt.Errorf("bot: acquire merge lock: %w", err)
		}
		defer release()
	}

	tokenIDs := make([]*big.Int, 0, 2)
	for _, o := range mk.Outcomes {
		id, err := parseTokenID(o.TokenID)
		if err != nil {
			return fmt.Errorf("bot: outcome %s: %w", o.ID, err)
		}
		tokenIDs = append(tokenIDs, id)
	}

	balances, err := m.chain.GetTokenBalances(ctx, m.owner, tokenIDs)
	if err != nil {
		return fmt.Errorf("bot: fetch token balances: %w", err)
	}
	if len(balances) != 2 {
		return fmt.Errorf("bot: expected 2 balances, got %d", len(balances))
	}

	mergeable := balances[0]
	if balances[1].Cmp(mergeable) < 0 {
		mergeable = balances[1]
	}

	threshold := decimal.NewFromFloat(m.params.MinShares).Shift(domain.CollateralDecimals).BigInt()
	if mergeable.Cmp(threshold) < 0 {
		return nil
	}

	txHash, err := m.chain.ExecuteMerge(ctx, mk.ConditionID, mk.NegRisk, mergeable)
	if err != nil {
		return fmt.Errorf("bot: execute merge: %w", err)
	}

	human := decimal.NewFromBigInt(mergeable, -domain.CollateralDecimals)
	m.log.Info("positions merged",
		slog.String("market_id", mk.ID),
		slog.String("shares", human.String()),
		slog.String("tx_hash", txHash))
	m.notifier.Notify(ctx, notify.EventMergeExecuted, "Merge executed",
		fmt.Sprintf("%s: merged %s share pairs (tx %s)", mk.ID, human.String(), txHash))
	return nil
}

// parseTokenID accepts the decimal and 0x-hex token id encodings the API
// has emitted across versions.
func parseTokenID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	id, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("bot: malformed token id %q: %w", s, domain.ErrTransport)
	}
	return id, nil
}
