package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emirates-gifts/storefront/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders (id, cart_id, lines, subtotal, shipping_fee, total)
	VALUES ($1, $2, $3, $4, $5, $6)`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// lines are serialized to JSON for the JSONB column; monetary columns are
// NUMERIC and rely on the pool's decimal codec.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Archive persists an order snapshot.
func (r *OrderRepository) Archive(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CartID, linesJSON, o.Subtotal, o.ShippingFee, o.Total,
	)
	if err != nil {
		return errors.Wrapf(err, "archive order %q", o.ID)
	}
	return nil
}
