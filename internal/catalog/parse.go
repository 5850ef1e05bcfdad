package catalog

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

// rawProduct collects the fields of one source entry before normalization.
// The data files are hand-maintained and mix string and numeric ids/prices,
// so every field is read permissively.
type rawProduct struct {
	id        string
	title     string
	price     decimal.Decimal
	salePrice decimal.Decimal
	imageURL  string
	hasPrice  bool
	hasSale   bool
}

// ParseProducts decodes a source body (a JSON array of product objects) into
// normalized records tagged with the source category. Entries failing minimal
// validation are dropped and counted, never fatal. A body that is not a JSON
// array is an error.
func ParseProducts(body []byte, category catalog.Category) (products []catalog.Product, dropped int, err error) {
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Array {
		return nil, 0, errors.New("body is not a JSON array")
	}

	if err := d.Arr(func(d *jx.Decoder) error {
		// Capture the whole element first so a malformed entry can be
		// skipped without corrupting the outer decoder state.
		elem, err := d.Raw()
		if err != nil {
			return err
		}
		raw, err := decodeRawProduct(jx.DecodeBytes(elem))
		if err != nil {
			dropped++
			return nil
		}
		p, ok := normalize(raw, category)
		if !ok {
			dropped++
			return nil
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, 0, err
	}
	return products, dropped, nil
}

func decodeRawProduct(d *jx.Decoder) (rawProduct, error) {
	var raw rawProduct
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			v, err := readStringy(d)
			if err != nil {
				return err
			}
			raw.id = v
			return nil
		case "title", "name":
			v, err := d.Str()
			if err != nil {
				return err
			}
			if raw.title == "" {
				raw.title = v
			}
			return nil
		case "price":
			v, err := readPrice(d)
			if err != nil {
				return err
			}
			raw.price = v
			raw.hasPrice = true
			return nil
		case "sale_price":
			v, err := readPrice(d)
			if err != nil {
				return err
			}
			raw.salePrice = v
			raw.hasSale = true
			return nil
		case "image_link", "image":
			v, err := d.Str()
			if err != nil {
				return err
			}
			if raw.imageURL == "" {
				raw.imageURL = v
			}
			return nil
		default:
			return d.Skip()
		}
	})
	return raw, err
}

// normalize applies the pricing invariants: listPrice ≥ salePrice ≥ 0, with
// a single present price filling both roles.
func normalize(raw rawProduct, category catalog.Category) (catalog.Product, bool) {
	if raw.id == "" || raw.title == "" {
		return catalog.Product{}, false
	}
	if !raw.hasPrice && !raw.hasSale {
		return catalog.Product{}, false
	}

	list, sale := raw.price, raw.salePrice
	switch {
	case !raw.hasSale || sale.IsZero():
		sale = list
	case !raw.hasPrice || list.IsZero():
		list = sale
	}
	// A "sale" above list means the data file has the fields swapped or no
	// real discount; treat as undiscounted at the effective price.
	if sale.GreaterThan(list) {
		list = sale
	}
	if sale.IsNegative() || list.IsNegative() {
		return catalog.Product{}, false
	}

	p := catalog.Product{
		ID:        raw.id,
		Title:     strings.TrimSpace(raw.title),
		ListPrice: list,
		SalePrice: sale,
		ImageURL:  raw.imageURL,
		Category:  category,
	}
	if err := p.Validate(); err != nil {
		return catalog.Product{}, false
	}
	return p, true
}

// readStringy reads a value encoded as either a JSON string or number.
func readStringy(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.New("unexpected value type")
	}
}

// readPrice reads a monetary value encoded as a JSON number or numeric string.
func readPrice(d *jx.Decoder) (decimal.Decimal, error) {
	raw, err := readStringy(d)
	if err != nil {
		return decimal.Zero, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errors.New("empty price")
	}
	return decimal.NewFromString(raw)
}
