package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/emirates-gifts/storefront/internal/domain/catalog"
)

func TestParseProducts(t *testing.T) {
	body := []byte(`[
		{"id": "1", "title": "Perfume A", "price": 300, "sale_price": 250, "image_link": "a.jpg"},
		{"id": 2, "name": "Perfume B", "price": "120.50"}
	]`)

	products, dropped, err := ParseProducts(body, domain.CategoryPerfumes)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, products, 2)

	a := products[0]
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, "Perfume A", a.Title)
	assert.True(t, decimal.NewFromInt(300).Equal(a.ListPrice))
	assert.True(t, decimal.NewFromInt(250).Equal(a.SalePrice))
	assert.Equal(t, "a.jpg", a.ImageURL)
	assert.Equal(t, domain.CategoryPerfumes, a.Category)
	assert.True(t, a.HasDiscount())
	assert.Equal(t, 17, a.DiscountPercent())

	// Numeric id and a single price filling both roles.
	b := products[1]
	assert.Equal(t, "2", b.ID)
	assert.True(t, decimal.RequireFromString("120.50").Equal(b.ListPrice))
	assert.True(t, b.ListPrice.Equal(b.SalePrice))
	assert.False(t, b.HasDiscount())
}

func TestParseProducts_DropsInvalidEntries(t *testing.T) {
	body := []byte(`[
		{"id": "ok", "title": "Keeper", "price": 10},
		{"title": "no id", "price": 10},
		{"id": "no-title", "price": 10},
		{"id": "no-price", "title": "Free?"},
		{"id": "neg", "title": "Negative", "price": -5},
		"not an object",
		{"id": "ok2", "title": "Second Keeper", "sale_price": "42"}
	]`)

	products, dropped, err := ParseProducts(body, domain.CategoryWatches)
	require.NoError(t, err)
	assert.Equal(t, 5, dropped)
	require.Len(t, products, 2)
	assert.Equal(t, "ok", products[0].ID)
	assert.Equal(t, "ok2", products[1].ID)
	assert.True(t, decimal.NewFromInt(42).Equal(products[1].SalePrice))
}

func TestParseProducts_SaleAboveListTreatedAsUndiscounted(t *testing.T) {
	body := []byte(`[{"id": "x", "title": "Swapped", "price": 100, "sale_price": 150}]`)

	products, _, err := ParseProducts(body, domain.CategoryGifts)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, decimal.NewFromInt(150).Equal(products[0].ListPrice))
	assert.True(t, decimal.NewFromInt(150).Equal(products[0].SalePrice))
	assert.False(t, products[0].HasDiscount())
}

func TestParseProducts_TrimsTitleWhitespace(t *testing.T) {
	body := []byte(`[{"id": "x", "title": "  Padded  ", "price": 10}]`)

	products, _, err := ParseProducts(body, domain.CategoryGifts)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Padded", products[0].Title)
}

func TestParseProducts_NotAnArray(t *testing.T) {
	_, _, err := ParseProducts([]byte(`{"id": "x"}`), domain.CategoryGifts)
	require.Error(t, err)

	_, _, err = ParseProducts([]byte(`garbage`), domain.CategoryGifts)
	require.Error(t, err)
}
