package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emirates-gifts/storefront/internal/domain/cart"
)

type mockRepo struct {
	last *Order
	err  error
}

func (m *mockRepo) Archive(_ context.Context, o *Order) error {
	m.last = o
	return m.err
}

func testLines() ([]cart.Line, cart.Totals) {
	lines := []cart.Line{
		{ProductID: "p1", Title: "Oud Royale", UnitPrice: decimal.NewFromInt(50), Quantity: 2},
	}
	return lines, cart.DefaultPricing().Totals(lines)
}

func TestSnapshot(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	lines, totals := testLines()

	o, err := svc.Snapshot(context.Background(), "c1", lines, totals)
	require.NoError(t, err)
	require.NotNil(t, repo.last)
	assert.Equal(t, o, repo.last)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "c1", o.CartID)
	assert.Len(t, o.Lines, 1)
	assert.True(t, decimal.RequireFromString("100.00").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("25").Equal(o.ShippingFee))
	assert.True(t, decimal.RequireFromString("125.00").Equal(o.Total))
	assert.False(t, o.CreatedAt.IsZero())
}

func TestSnapshot_UniqueIDs(t *testing.T) {
	svc := NewService(&mockRepo{})
	lines, totals := testLines()

	a, err := svc.Snapshot(context.Background(), "c1", lines, totals)
	require.NoError(t, err)
	b, err := svc.Snapshot(context.Background(), "c1", lines, totals)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSnapshot_NilRepositorySkipsArchiving(t *testing.T) {
	svc := NewService(nil)
	lines, totals := testLines()

	o, err := svc.Snapshot(context.Background(), "c1", lines, totals)
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestSnapshot_ArchiveError(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("db down")})
	lines, totals := testLines()

	_, err := svc.Snapshot(context.Background(), "c1", lines, totals)
	require.Error(t, err)
}
