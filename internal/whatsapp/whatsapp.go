// Package whatsapp builds outbound checkout deep links. This is purely a
// string-building concern: the messaging service itself is an external
// collaborator and no protocol handling happens here.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/emirates-gifts/storefront/internal/domain/cart"
	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

// DefaultBaseURL is the deep link service endpoint.
const DefaultBaseURL = "https://wa.me"

// Builder produces deep links of the form <base>/<phone>?text=<encoded body>.
type Builder struct {
	base  string
	phone string
}

// NewBuilder creates a Builder for the given phone number. An empty base
// falls back to DefaultBaseURL.
func NewBuilder(base, phone string) *Builder {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Builder{base: strings.TrimRight(base, "/"), phone: phone}
}

// OrderLink builds the checkout link for a whole cart.
func (b *Builder) OrderLink(lines []cart.Line, totals cart.Totals) string {
	var msg strings.Builder
	msg.WriteString("New order:\n")
	for _, l := range lines {
		fmt.Fprintf(&msg, "- %s x%d: %s AED\n", l.Title, l.Quantity, l.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&msg, "Subtotal: %s AED\n", totals.Subtotal.StringFixed(2))
	if totals.FreeShipping() {
		msg.WriteString("Shipping: free\n")
	} else {
		fmt.Fprintf(&msg, "Shipping: %s AED\n", totals.ShippingFee.StringFixed(2))
	}
	fmt.Fprintf(&msg, "Total: %s AED", totals.Total.StringFixed(2))
	return b.link(msg.String())
}

// ProductLink builds a single-product "order now" link.
func (b *Builder) ProductLink(p catalog.Product) string {
	body := fmt.Sprintf("I would like to order: %s (%s AED)", p.Title, p.SalePrice.StringFixed(2))
	return b.link(body)
}

func (b *Builder) link(body string) string {
	return b.base + "/" + b.phone + "?text=" + url.QueryEscape(body)
}
