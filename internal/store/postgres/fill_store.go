package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// FillStore implements domain.FillStore using PostgreSQL.
type FillStore struct {
	pool *pgxpool.Pool
}

// NewFillStore creates a FillStore backed by the given connection pool.
func NewFillStore(pool *pgxpool.Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Create inserts a fill journal record.
func (s *FillStore) Create(ctx context.Context, f domain.FillEvent) error {
	const query = `
		INSERT INTO fills (
			id, order_id, market_id, outcome_label, side,
			delta, price, observed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		)`

	_, err := s.pool.Exec(ctx, query,
		f.ID, f.OrderID, f.MarketID, f.OutcomeLabel, string(f.Side),
		f.Delta, f.Price, f.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create fill %s: %w", f.ID, err)
	}
	return nil
}

// ListSince returns fills observed at or after since, oldest first.
func (s *FillStore) ListSince(ctx context.Context, since time.Time, limit int) ([]domain.FillEvent, error) {
	const query = `
		SELECT id, order_id, market_id, outcome_label, side,
		       delta, price, observed_at
		FROM fills
		WHERE observed_at >= $1
		ORDER BY observed_at ASC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills: %w", err)
	}
	defer rows.Close()

	var fills []domain.FillEvent
	for rows.Next() {
		var f domain.FillEvent
		var side string
		if err := rows.Scan(
			&f.ID, &f.OrderID, &f.MarketID, &f.OutcomeLabel, &side,
			&f.Delta, &f.Price, &f.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan fill: %w", err)
		}
		f.Side = domain.OrderSide(side)
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate fills: %w", err)
	}
	return fills, nil
}
