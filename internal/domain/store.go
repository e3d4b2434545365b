package domain

import (
	"context"
	"time"
)

// OrderStore journals orders this process has placed. Implementations are
// best-effort: the bot logs and continues when a journal write fails.
type OrderStore interface {
	Create(ctx context.Context, order PlacedOrder) error
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
	ListByMarket(ctx context.Context, marketID string, limit int) ([]PlacedOrder, error)
}

// FillStore journals fill deltas observed on the order-update stream.
type FillStore interface {
	Create(ctx context.Context, fill FillEvent) error
	ListSince(ctx context.Context, since time.Time, limit int) ([]FillEvent, error)
}
