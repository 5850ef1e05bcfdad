// Package catalog defines the product catalog domain model: normalized
// product records, their categories, and the source descriptors they are
// loaded from.
package catalog

import (
	"net/url"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category tags a product with its catalog section. It drives icon and
// description selection in rendered output.
type Category string

const (
	CategoryPerfumes Category = "perfumes"
	CategoryWatches  Category = "watches"
	CategoryGifts    Category = "gifts"
)

// Icon returns the decorative icon shown on category badges.
func (c Category) Icon() string {
	switch c {
	case CategoryPerfumes:
		return "🌸"
	case CategoryWatches:
		return "⌚"
	default:
		return "🎁"
	}
}

// Label returns the display name for the category.
func (c Category) Label() string {
	switch c {
	case CategoryPerfumes:
		return "Perfumes"
	case CategoryWatches:
		return "Watches"
	default:
		return "Gifts"
	}
}

// Product is one normalized catalog entry. Records are created by the loader
// at startup, immutable for the session, and never persisted locally.
type Product struct {
	ID        string
	Title     string
	ListPrice decimal.Decimal
	SalePrice decimal.Decimal
	ImageURL  string
	Category  Category
}

// HasDiscount reports whether the product is sold below its list price.
func (p Product) HasDiscount() bool {
	return p.ListPrice.GreaterThan(p.SalePrice)
}

// DiscountPercent returns the rounded discount percentage, or 0 when the
// product has no discount or a zero list price.
func (p Product) DiscountPercent() int {
	if !p.HasDiscount() || p.ListPrice.IsZero() {
		return 0
	}
	pct := p.ListPrice.Sub(p.SalePrice).
		Div(p.ListPrice).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return int(pct.IntPart())
}

// PagePath returns the site-relative detail page path. Ids come from
// hand-maintained data files and may contain slashes or spaces, so the id is
// path-escaped.
func (p Product) PagePath() string {
	return "/products/" + url.PathEscape(p.ID)
}

// Validate checks the invariants every normalized record must satisfy.
func (p Product) Validate() error {
	if p.ID == "" {
		return errors.New("missing id")
	}
	if p.Title == "" {
		return errors.New("missing title")
	}
	if p.SalePrice.IsNegative() || p.ListPrice.IsNegative() {
		return errors.New("negative price")
	}
	if p.SalePrice.GreaterThan(p.ListPrice) {
		return errors.New("sale price above list price")
	}
	return nil
}

// Source describes one catalog endpoint: a static JSON array of product
// objects. Records loaded from a source inherit its category.
type Source struct {
	// Name identifies the source in logs and error messages.
	Name string
	// URL is the endpoint serving the JSON array.
	URL string
	// Category is applied to every record the source yields.
	Category Category
}
