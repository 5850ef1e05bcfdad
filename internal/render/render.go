// Package render produces the storefront's markup fragments and static
// artifacts from normalized catalog and cart data. Rendering is pure: the
// same input always yields the same output, and behavior is attached later
// by the action dispatcher via the data-action attributes; generated markup
// never embeds executable callbacks.
//
// All catalog-supplied text passes through html/template's contextual
// escaping, which centralizes sanitization in one place.
package render

import (
	"html/template"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/emirates-gifts/storefront/internal/domain/cart"
	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

// DefaultPlaceholderImage substitutes product images that are missing or
// fail to load.
const DefaultPlaceholderImage = "https://via.placeholder.com/300x300/D4AF37/FFFFFF?text=Emirates+Gifts"

// Config holds renderer settings.
type Config struct {
	// BaseURL is the public store URL used in detail-page links, the feed,
	// and the sitemap (no trailing slash).
	BaseURL string
	// PlaceholderImage replaces missing product images.
	PlaceholderImage string
	// Currency is the display currency code.
	Currency string
	// StoreName titles generated pages and the feed channel.
	StoreName string
}

func (c Config) withDefaults() Config {
	if c.PlaceholderImage == "" {
		c.PlaceholderImage = DefaultPlaceholderImage
	}
	if c.Currency == "" {
		c.Currency = "AED"
	}
	if c.StoreName == "" {
		c.StoreName = "Emirates Gifts"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Renderer renders products, carts, and full pages.
type Renderer struct {
	cfg Config
	t   *template.Template
}

// New parses the embedded templates and returns a Renderer.
func New(cfg Config) (*Renderer, error) {
	t, err := template.New("storefront").Parse(templates)
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Renderer{cfg: cfg.withDefaults(), t: t}, nil
}

// cardView is the product card template model.
type cardView struct {
	ID              string
	Title           string
	ImageURL        string
	Placeholder     string
	CategoryIcon    string
	CategoryLabel   string
	SalePrice       string
	ListPrice       string
	HasDiscount     bool
	DiscountPercent int
	DetailURL       string
}

// cartView is the cart template model.
type cartView struct {
	Lines           []cartLineView
	ItemCount       int
	Subtotal        string
	ShippingFee     string
	FreeShipping    bool
	RemainingToFree string
	Total           string
}

type cartLineView struct {
	ProductID string
	Title     string
	ImageURL  string
	UnitPrice string
	Quantity  int
	LineTotal string
}

// pageView wraps a rendered fragment in the page shell.
type pageView struct {
	Title        string
	StoreName    string
	CartCount    int
	Notice       *NoticeView
	Announcement string
	Body         template.HTML
}

// NoticeView is the transient notification shown at the top of a page.
type NoticeView struct {
	Message string
	Kind    string
}

// ProductList renders the product grid fragment.
func (r *Renderer) ProductList(products []catalog.Product) (template.HTML, error) {
	views := make([]cardView, len(products))
	for i, p := range products {
		views[i] = r.cardViewOf(p)
	}
	return r.exec("product-list", views)
}

// ProductDetail renders the detail fragment for one product.
func (r *Renderer) ProductDetail(p catalog.Product) (template.HTML, error) {
	return r.exec("product-detail", r.cardViewOf(p))
}

// Cart renders the cart fragment: one row per line plus the totals summary,
// or the distinct empty-cart state when there are no lines.
func (r *Renderer) Cart(lines []cart.Line, totals cart.Totals) (template.HTML, error) {
	v := cartView{
		Lines:           make([]cartLineView, len(lines)),
		ItemCount:       totals.ItemCount,
		Subtotal:        r.money(totals.Subtotal),
		ShippingFee:     r.money(totals.ShippingFee),
		FreeShipping:    totals.FreeShipping(),
		RemainingToFree: r.money(totals.RemainingToFree),
		Total:           r.money(totals.Total),
	}
	for i, l := range lines {
		img := l.ImageURL
		if img == "" {
			img = r.cfg.PlaceholderImage
		}
		v.Lines[i] = cartLineView{
			ProductID: l.ProductID,
			Title:     l.Title,
			ImageURL:  img,
			UnitPrice: r.money(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: r.money(l.LineTotal()),
		}
	}
	return r.exec("cart", v)
}

// CatalogError renders the total-failure state with a manual retry action.
func (r *Renderer) CatalogError() (template.HTML, error) {
	return r.exec("catalog-error", nil)
}

// Page wraps a fragment in the HTML page shell.
func (r *Renderer) Page(title string, cartCount int, notice *NoticeView, announcement string, body template.HTML) (string, error) {
	h, err := r.exec("page", pageView{
		Title:        title,
		StoreName:    r.cfg.StoreName,
		CartCount:    cartCount,
		Notice:       notice,
		Announcement: announcement,
		Body:         body,
	})
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// ProductPage renders a self-contained static detail page for one product,
// as written out by the artifact generator.
func (r *Renderer) ProductPage(p catalog.Product) (string, error) {
	body, err := r.ProductDetail(p)
	if err != nil {
		return "", err
	}
	return r.Page(p.Title, 0, nil, "", body)
}

func (r *Renderer) cardViewOf(p catalog.Product) cardView {
	img := p.ImageURL
	if img == "" {
		img = r.cfg.PlaceholderImage
	}
	return cardView{
		ID:              p.ID,
		Title:           p.Title,
		ImageURL:        img,
		Placeholder:     r.cfg.PlaceholderImage,
		CategoryIcon:    p.Category.Icon(),
		CategoryLabel:   p.Category.Label(),
		SalePrice:       r.money(p.SalePrice),
		ListPrice:       r.money(p.ListPrice),
		HasDiscount:     p.HasDiscount(),
		DiscountPercent: p.DiscountPercent(),
		DetailURL:       p.PagePath(),
	}
}

func (r *Renderer) money(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + r.cfg.Currency
}

func (r *Renderer) exec(name string, data any) (template.HTML, error) {
	var b strings.Builder
	if err := r.t.ExecuteTemplate(&b, name, data); err != nil {
		return "", errors.Wrapf(err, "render %s", name)
	}
	return template.HTML(b.String()), nil
}
