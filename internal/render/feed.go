package render

import (
	"encoding/xml"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

// feedShippingPrice is what the feed advertises per item; the store promotes
// flat-rate shipping separately at checkout.
var feedShippingPrice = decimal.Zero

// Google Merchant feed structures (RSS 2.0 with the g: namespace).
type merchantFeed struct {
	XMLName xml.Name        `xml:"rss"`
	Version string          `xml:"version,attr"`
	XmlnsG  string          `xml:"xmlns:g,attr"`
	Channel merchantChannel `xml:"channel"`
}

type merchantChannel struct {
	Title       string         `xml:"title"`
	Link        string         `xml:"link"`
	Description string         `xml:"description"`
	Items       []merchantItem `xml:"item"`
}

type merchantItem struct {
	ID              string        `xml:"g:id"`
	Title           string        `xml:"title"`
	Description     string        `xml:"description"`
	Link            string        `xml:"link"`
	ImageLink       string        `xml:"g:image_link"`
	Condition       string        `xml:"g:condition"`
	Availability    string        `xml:"g:availability"`
	Price           string        `xml:"g:price"`
	SalePrice       string        `xml:"g:sale_price,omitempty"`
	Brand           string        `xml:"g:brand"`
	ProductCategory string        `xml:"g:google_product_category"`
	ProductType     string        `xml:"g:product_type"`
	Shipping        feedShipping  `xml:"g:shipping"`
	IdentifierFlag  identifierTag `xml:"g:identifier_exists"`
}

type feedShipping struct {
	Country string `xml:"g:country"`
	Service string `xml:"g:service"`
	Price   string `xml:"g:price"`
}

// identifierTag always renders "no": the catalog carries no GTIN/MPN data.
type identifierTag struct{}

func (identifierTag) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement("no", start)
}

// googleCategory maps store categories to Google product taxonomy names.
func googleCategory(c catalog.Category) (category, productType string) {
	switch c {
	case catalog.CategoryPerfumes:
		return "Health & Beauty > Personal Care > Cosmetics > Fragrance", "Perfumes"
	case catalog.CategoryWatches:
		return "Apparel & Accessories > Jewelry > Watches", "Watches"
	default:
		return "Arts & Entertainment > Party & Celebration > Gift Giving", "Gifts"
	}
}

// MerchantFeed renders the Google Merchant XML feed. Products without a
// positive effective price are skipped, the merchant platform rejects them.
func (r *Renderer) MerchantFeed(products []catalog.Product) ([]byte, error) {
	feed := merchantFeed{
		Version: "2.0",
		XmlnsG:  "http://base.google.com/ns/1.0",
		Channel: merchantChannel{
			Title:       r.cfg.StoreName,
			Link:        r.cfg.BaseURL,
			Description: r.cfg.StoreName + " product feed",
		},
	}

	for _, p := range products {
		if !p.SalePrice.IsPositive() {
			continue
		}

		gCategory, pType := googleCategory(p.Category)
		item := merchantItem{
			ID:              p.ID,
			Title:           p.Title,
			Description:     p.Category.Label() + " - " + p.Title,
			Link:            r.cfg.BaseURL + p.PagePath(),
			ImageLink:       p.ImageURL,
			Condition:       "new",
			Availability:    "in_stock",
			Price:           r.money(p.ListPrice),
			Brand:           r.cfg.StoreName,
			ProductCategory: gCategory,
			ProductType:     pType,
			Shipping: feedShipping{
				Country: "AE",
				Service: "Standard",
				Price:   r.money(feedShippingPrice),
			},
		}
		if p.HasDiscount() {
			item.SalePrice = r.money(p.SalePrice)
		}
		feed.Channel.Items = append(feed.Channel.Items, item)
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal feed")
	}
	return append([]byte(xml.Header), out...), nil
}

// Sitemap structures.
type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// Sitemap renders the sitemap covering the store root and every product page.
func (r *Renderer) Sitemap(products []catalog.Product) ([]byte, error) {
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []sitemapURL{{Loc: r.cfg.BaseURL + "/", ChangeFreq: "daily"}},
	}
	for _, p := range products {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        r.cfg.BaseURL + p.PagePath(),
			ChangeFreq: "weekly",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal sitemap")
	}
	return append([]byte(xml.Header), out...), nil
}
