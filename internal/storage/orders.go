package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/okhomin/freightbot/internal/model"
)

// Orders is the Postgres-backed shipment request repository.
type Orders struct {
	db *sqlx.DB
}

// NewOrders creates the order repository over the shared connection pool.
func NewOrders(db *sqlx.DB) *Orders {
	return &Orders{db: db}
}

// Create inserts the order unless one with the same idempotency key already
// exists. It reports whether a new row was written.
func (r *Orders) Create(ctx context.Context, o *model.Order) (bool, error) {
	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO orders (
			reference, client_id, from_location, to_location,
			description, price, idempotency_key
		) VALUES (
			:reference, :client_id, :from_location, :to_location,
			:description, :price, :idempotency_key
		)
		ON CONFLICT (idempotency_key) DO NOTHING`, o)
	if err != nil {
		return false, fmt.Errorf("orders: create %s: %w", o.IdempotencyKey, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("orders: rows affected: %w", err)
	}
	return affected > 0, nil
}

// ByClient lists a client's orders, newest first.
func (r *Orders) ByClient(ctx context.Context, clientID int64) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("orders: by client %d: %w", clientID, err)
	}
	return orders, nil
}
