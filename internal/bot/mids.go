package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// midCacheMaxAge bounds how stale a cached mid may be before the hedging
// pipeline falls back to its configured default.
const midCacheMaxAge = 5 * time.Minute

type bookFetcher interface {
	GetOrderBook(ctx context.Context, marketID, outcomeID string) (domain.OrderBook, error)
}

// BookMids resolves live mid prices from the exchange order book, writing
// each observation through to an optional cache and reading the cache back
// when the book is empty or unreachable.
type BookMids struct {
	books bookFetcher
	cache domain.MidCache
	log   *slog.Logger
}

// NewBookMids creates a mid source backed by books. cache may be nil.
func NewBookMids(books bookFetcher, cache domain.MidCache, logger *slog.Logger) *BookMids {
	return &BookMids{
		books: books,
		cache: cache,
		log:   logger.With(slog.String("component", "mids")),
	}
}

// Mid returns the current mid price for an outcome. The second return is
// false when neither the live book nor the cache has a usable value.
func (m *BookMids) Mid(ctx context.Context, marketID string, outcome domain.Outcome) (float64, bool) {
	book, err := m.books.GetOrderBook(ctx, marketID, outcome.ID)
	if err == nil {
		if mid, ok := book.Mid(); ok {
			if m.cache != nil {
				if cerr := m.cache.SetMid(ctx, outcome.ID, mid, time.Now()); cerr != nil {
					m.log.Debug("mid cache write failed", slog.String("outcome_id", outcome.ID), slog.Any("error", cerr))
				}
			}
			return mid, true
		}
	} else {
		m.log.Debug("order book fetch failed",
			slog.String("market_id", marketID),
			slog.String("outcome_id", outcome.ID),
			slog.Any("error", err))
	}

	if m.cache != nil {
		mid, ts, cerr := m.cache.GetMid(ctx, outcome.ID)
		if cerr == nil && mid > 0 && time.Since(ts) <= midCacheMaxAge {
			return mid, true
		}
	}
	return 0, false
}
