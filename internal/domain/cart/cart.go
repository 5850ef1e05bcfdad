// Package cart owns the shopping cart: line items snapshotted from the
// catalog at add time, derived totals, and the persisted-store service.
package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one aggregated row in the cart. Title, UnitPrice and ImageURL are
// snapshots copied from the product at insertion, so the cart still renders
// when the catalog is unavailable. Exactly one line exists per product id.
type Line struct {
	ProductID string
	Title     string
	UnitPrice decimal.Decimal
	ImageURL  string
	Quantity  int
}

// LineTotal returns UnitPrice multiplied by Quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot carries the product fields copied into a new line.
type Snapshot struct {
	Title     string
	UnitPrice decimal.Decimal
	ImageURL  string
}

// Totals holds the derived cart amounts. They are recomputed on every read,
// never stored.
type Totals struct {
	// ItemCount is the sum of quantities across all lines.
	ItemCount int
	Subtotal  decimal.Decimal
	// ShippingFee is zero once Subtotal reaches the free-shipping threshold.
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	// RemainingToFree is how much more the customer must add to waive
	// shipping. Zero when shipping is already free.
	RemainingToFree decimal.Decimal
}

// FreeShipping reports whether the shipping fee is waived.
func (t Totals) FreeShipping() bool {
	return t.ShippingFee.IsZero()
}

// Pricing holds the shipping rules applied when computing totals.
type Pricing struct {
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	// FlatShippingFee is charged below the threshold.
	FlatShippingFee decimal.Decimal
}

// DefaultPricing mirrors the store's standing offer: flat 25 AED shipping,
// free from 200 AED.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(200),
		FlatShippingFee:       decimal.NewFromInt(25),
	}
}

// Totals computes the derived amounts for the given lines.
func (p Pricing) Totals(lines []Line) Totals {
	t := Totals{
		Subtotal:        decimal.Zero,
		ShippingFee:     decimal.Zero,
		RemainingToFree: decimal.Zero,
	}
	for _, l := range lines {
		t.ItemCount += l.Quantity
		t.Subtotal = t.Subtotal.Add(l.LineTotal())
	}
	if len(lines) > 0 && t.Subtotal.LessThan(p.FreeShippingThreshold) {
		t.ShippingFee = p.FlatShippingFee
		t.RemainingToFree = p.FreeShippingThreshold.Sub(t.Subtotal)
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.Total = t.Subtotal.Add(t.ShippingFee).Round(2)
	return t
}
