// Package order archives checkout snapshots. An order row is written when a
// checkout deep link is produced; failure to archive never blocks checkout.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emirates-gifts/storefront/internal/domain/cart"
)

// Order is a point-in-time snapshot of a cart at checkout.
type Order struct {
	ID          string
	CartID      string
	Lines       []cart.Line
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
}

// Repository defines persistence for order snapshots.
type Repository interface {
	Archive(ctx context.Context, o *Order) error
}

// Service builds and archives order snapshots.
type Service struct {
	orders Repository
}

// NewService creates an order Service. A nil repository disables archiving
// (the storefront runs without a database in static-hosting mode).
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// Snapshot archives the given cart state and returns the stored order.
func (s *Service) Snapshot(ctx context.Context, cartID string, lines []cart.Line, totals cart.Totals) (*Order, error) {
	o := &Order{
		ID:          uuid.New().String(),
		CartID:      cartID,
		Lines:       lines,
		Subtotal:    totals.Subtotal,
		ShippingFee: totals.ShippingFee,
		Total:       totals.Total,
		CreatedAt:   time.Now().UTC(),
	}
	if s.orders == nil {
		return o, nil
	}
	if err := s.orders.Archive(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
