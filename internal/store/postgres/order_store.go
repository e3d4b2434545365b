package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates an OrderStore backed by the given connection pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Create inserts a placed-order journal record.
func (s *OrderStore) Create(ctx context.Context, o domain.PlacedOrder) error {
	const query = `
		INSERT INTO placed_orders (
			id, market_id, outcome_id, side, purpose,
			price, size, salt, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)`

	_, err := s.pool.Exec(ctx, query,
		o.ID, o.MarketID, o.OutcomeID, string(o.Side), o.Purpose,
		o.Price, o.Size, o.Salt, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create placed order %s: %w", o.ID, err)
	}
	return nil
}

// UpdateStatus changes the journaled status of an order.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	const query = `UPDATE placed_orders SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := s.pool.Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("postgres: update order status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByMarket returns the most recent journal records for a market.
func (s *OrderStore) ListByMarket(ctx context.Context, marketID string, limit int) ([]domain.PlacedOrder, error) {
	const query = `
		SELECT id, market_id, outcome_id, side, purpose,
		       price, size, salt, status, created_at
		FROM placed_orders
		WHERE market_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders for market %s: %w", marketID, err)
	}
	defer rows.Close()

	var orders []domain.PlacedOrder
	for rows.Next() {
		var o domain.PlacedOrder
		var side, status string
		if err := rows.Scan(
			&o.ID, &o.MarketID, &o.OutcomeID, &side, &o.Purpose,
			&o.Price, &o.Size, &o.Salt, &status, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan placed order: %w", err)
		}
		o.Side = domain.OrderSide(side)
		o.Status = domain.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate placed orders: %w", err)
	}
	return orders, nil
}
