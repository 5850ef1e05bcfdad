package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockStorage struct {
	values map[string][]byte
	getErr error
	setErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{values: make(map[string][]byte)}
}

func (m *mockStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockStorage) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockStorage) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

// --- Helpers ---

func newTestService(store Storage) *Service {
	return NewService(store, DefaultPricing())
}

func snap(title, price string) Snapshot {
	return Snapshot{
		Title:     title,
		UnitPrice: decimal.RequireFromString(price),
		ImageURL:  "https://cdn.example/" + title + ".jpg",
	}
}

// --- Tests ---

func TestAddOrIncrement_NewLine(t *testing.T) {
	svc := newTestService(newMockStorage())

	lines, err := svc.AddOrIncrement(context.Background(), "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, "Oud", lines[0].Title)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("150.00").Equal(lines[0].UnitPrice))
}

func TestAddOrIncrement_RepeatedAddBumpsQuantity(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)
	lines, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddOrIncrement_PreservesInsertionOrder(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)
	_, err = svc.AddOrIncrement(ctx, "c1", "p2", snap("Rolex", "900.00"))
	require.NoError(t, err)
	lines, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, "p2", lines[1].ProductID)
}

func TestRead_RoundTrip(t *testing.T) {
	store := newMockStorage()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "99.50"))
	require.NoError(t, err)

	// A fresh service over the same storage sees the same cart.
	lines := newTestService(store).Read(ctx, "c1")
	require.Len(t, lines, 1)
	assert.Equal(t, "Oud", lines[0].Title)
	assert.True(t, decimal.RequireFromString("99.50").Equal(lines[0].UnitPrice))
	assert.Equal(t, "https://cdn.example/Oud.jpg", lines[0].ImageURL)
}

func TestRead_EmptyCart(t *testing.T) {
	svc := newTestService(newMockStorage())
	assert.Empty(t, svc.Read(context.Background(), "nobody"))
}

func TestRead_CorruptBlobTreatedAsEmpty(t *testing.T) {
	store := newMockStorage()
	store.values["emirates_cart/c1"] = []byte("{not json")

	svc := newTestService(store)
	assert.Empty(t, svc.Read(context.Background(), "c1"))
}

func TestRead_StorageErrorTreatedAsEmpty(t *testing.T) {
	store := newMockStorage()
	store.getErr = errors.New("backend down")

	svc := newTestService(store)
	assert.Empty(t, svc.Read(context.Background(), "c1"))
}

func TestRead_MalformedEntryDroppedOthersKept(t *testing.T) {
	store := newMockStorage()
	store.values["emirates_cart/c1"] = []byte(
		`[{"id":"p1","title":"Oud","price":150,"quantity":2},{"title":"no id","price":10},{"id":"p2","price":"20.50"}]`)

	lines := newTestService(store).Read(context.Background(), "c1")
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "p2", lines[1].ProductID)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestSetQuantity(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)

	lines, err := svc.SetQuantity(ctx, "c1", "p1", 5)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestSetQuantity_MissingLine(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.SetQuantity(ctx, "c1", "ghost", 3)
	require.ErrorIs(t, err, ErrLineNotFound)

	// Removing a missing line stays a no-op, preserving Remove's semantics.
	_, err = svc.SetQuantity(ctx, "c1", "ghost", 0)
	require.NoError(t, err)
}

func TestSetQuantity_BelowOneRemovesLine(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)

	lines, err := svc.SetQuantity(ctx, "c1", "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Empty(t, svc.Read(ctx, "c1"))
}

func TestAdjust(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)

	lines, err := svc.Adjust(ctx, "c1", "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, lines[0].Quantity)

	// Decrementing to zero removes the line entirely.
	lines, err = svc.Adjust(ctx, "c1", "p1", -3)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAdjust_MissingLine(t *testing.T) {
	svc := newTestService(newMockStorage())

	_, err := svc.Adjust(context.Background(), "c1", "ghost", 1)
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestRemove_AbsentLineIsNoop(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)

	lines, err := svc.Remove(ctx, "c1", "ghost")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestClear(t *testing.T) {
	svc := newTestService(newMockStorage())
	ctx := context.Background()

	_, err := svc.AddOrIncrement(ctx, "c1", "p1", snap("Oud", "150.00"))
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "c1"))
	assert.Empty(t, svc.Read(ctx, "c1"))
}

func TestPersistError(t *testing.T) {
	store := newMockStorage()
	store.setErr = errors.New("disk full")
	svc := newTestService(store)

	_, err := svc.AddOrIncrement(context.Background(), "c1", "p1", snap("Oud", "150.00"))
	require.Error(t, err)
}

// --- Legacy key migration ---

func TestLegacyMigration_MergedAndDeleted(t *testing.T) {
	store := newMockStorage()
	store.values["emirates_shopping_cart/c1"] = []byte(`[{"id":"p1","name":"Oud","price":"150","image_link":"a.jpg"}]`)
	store.values["emirates_final_cart/c1"] = []byte(`[{"id":"p2","title":"Rolex","price":900,"quantity":2}]`)

	svc := newTestService(store)
	ctx := context.Background()

	lines := svc.Read(ctx, "c1")
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, "Oud", lines[0].Title)
	assert.Equal(t, "a.jpg", lines[0].ImageURL)
	assert.Equal(t, 1, lines[0].Quantity) // missing quantity defaults to 1
	assert.Equal(t, "p2", lines[1].ProductID)
	assert.Equal(t, 2, lines[1].Quantity)

	// Legacy keys are consumed; the merge survives under the canonical key.
	assert.NotContains(t, store.values, "emirates_shopping_cart/c1")
	assert.NotContains(t, store.values, "emirates_final_cart/c1")
	assert.Contains(t, store.values, "emirates_cart/c1")

	again := svc.Read(ctx, "c1")
	assert.Len(t, again, 2)
}

func TestLegacyMigration_CanonicalWins(t *testing.T) {
	store := newMockStorage()
	store.values["emirates_cart/c1"] = []byte(`[{"id":"p1","title":"Current","price":100,"quantity":3}]`)
	store.values["emirates_shopping_cart/c1"] = []byte(`[{"id":"p1","title":"Stale","price":80}]`)

	lines := newTestService(store).Read(context.Background(), "c1")
	require.Len(t, lines, 1)
	assert.Equal(t, "Current", lines[0].Title)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestLegacyMigration_CorruptLegacyBlobDropped(t *testing.T) {
	store := newMockStorage()
	store.values["emirates_cart/c1"] = []byte(`[{"id":"p1","title":"Oud","price":100,"quantity":1}]`)
	store.values["emirates_final_cart/c1"] = []byte("garbage")

	lines := newTestService(store).Read(context.Background(), "c1")
	require.Len(t, lines, 1)
	assert.NotContains(t, store.values, "emirates_final_cart/c1")
}

// --- Totals ---

func TestTotals_EmptyCart(t *testing.T) {
	got := DefaultPricing().Totals(nil)

	assert.Equal(t, 0, got.ItemCount)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.ShippingFee.IsZero())
	assert.True(t, got.Total.IsZero())
	assert.True(t, got.FreeShipping())
}

func TestTotals_BelowThresholdChargesFlatFee(t *testing.T) {
	lines := []Line{
		{ProductID: "p1", UnitPrice: decimal.RequireFromString("40.00"), Quantity: 2},
		{ProductID: "p2", UnitPrice: decimal.RequireFromString("20.00"), Quantity: 1},
	}

	got := DefaultPricing().Totals(lines)
	assert.Equal(t, 3, got.ItemCount)
	assert.True(t, decimal.RequireFromString("100.00").Equal(got.Subtotal))
	assert.True(t, decimal.RequireFromString("25").Equal(got.ShippingFee))
	assert.True(t, decimal.RequireFromString("125.00").Equal(got.Total))
	assert.True(t, decimal.RequireFromString("100").Equal(got.RemainingToFree))
	assert.False(t, got.FreeShipping())
}

func TestTotals_AtThresholdShipsFree(t *testing.T) {
	lines := []Line{
		{ProductID: "p1", UnitPrice: decimal.RequireFromString("200.00"), Quantity: 1},
	}

	got := DefaultPricing().Totals(lines)
	assert.True(t, got.ShippingFee.IsZero())
	assert.True(t, decimal.RequireFromString("200.00").Equal(got.Total))
	assert.True(t, got.RemainingToFree.IsZero())
	assert.True(t, got.FreeShipping())
}

func TestTotals_AboveThresholdShipsFree(t *testing.T) {
	lines := []Line{
		{ProductID: "p1", UnitPrice: decimal.RequireFromString("150.00"), Quantity: 2},
	}

	got := DefaultPricing().Totals(lines)
	assert.True(t, got.ShippingFee.IsZero())
	assert.True(t, decimal.RequireFromString("300.00").Equal(got.Total))
}

func TestTotals_CustomPricing(t *testing.T) {
	pricing := Pricing{
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(40),
	}
	lines := []Line{
		{ProductID: "p1", UnitPrice: decimal.RequireFromString("300.00"), Quantity: 1},
	}

	got := pricing.Totals(lines)
	assert.True(t, decimal.RequireFromString("40").Equal(got.ShippingFee))
	assert.True(t, decimal.RequireFromString("200").Equal(got.RemainingToFree))
}
