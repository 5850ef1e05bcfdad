package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emirates-gifts/storefront/internal/domain/cart"
	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

func decodeText(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("text")
}

func TestProductLink(t *testing.T) {
	b := NewBuilder("", "971501234567")
	p := catalog.Product{
		ID:        "p1",
		Title:     "Oud Royale",
		SalePrice: decimal.NewFromInt(250),
		ListPrice: decimal.NewFromInt(300),
	}

	link := b.ProductLink(p)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/971501234567?text="))

	body := decodeText(t, link)
	assert.Contains(t, body, "Oud Royale")
	assert.Contains(t, body, "250.00 AED")
}

func TestOrderLink(t *testing.T) {
	b := NewBuilder("", "971501234567")
	lines := []cart.Line{
		{ProductID: "p1", Title: "Oud Royale", UnitPrice: decimal.NewFromInt(50), Quantity: 2},
		{ProductID: "p2", Title: "Classic Watch", UnitPrice: decimal.NewFromInt(30), Quantity: 1},
	}
	totals := cart.DefaultPricing().Totals(lines)

	body := decodeText(t, b.OrderLink(lines, totals))
	assert.Contains(t, body, "New order:")
	assert.Contains(t, body, "Oud Royale x2: 100.00 AED")
	assert.Contains(t, body, "Classic Watch x1: 30.00 AED")
	assert.Contains(t, body, "Subtotal: 130.00 AED")
	assert.Contains(t, body, "Shipping: 25.00 AED")
	assert.Contains(t, body, "Total: 155.00 AED")
}

func TestOrderLink_FreeShipping(t *testing.T) {
	b := NewBuilder("", "971501234567")
	lines := []cart.Line{
		{ProductID: "p1", Title: "Oud Royale", UnitPrice: decimal.NewFromInt(250), Quantity: 1},
	}
	totals := cart.DefaultPricing().Totals(lines)

	body := decodeText(t, b.OrderLink(lines, totals))
	assert.Contains(t, body, "Shipping: free")
	assert.Contains(t, body, "Total: 250.00 AED")
}

func TestNewBuilder_CustomBase(t *testing.T) {
	b := NewBuilder("https://example.test/", "123")
	link := b.ProductLink(catalog.Product{Title: "X", SalePrice: decimal.NewFromInt(1)})
	assert.True(t, strings.HasPrefix(link, "https://example.test/123?text="))
}
