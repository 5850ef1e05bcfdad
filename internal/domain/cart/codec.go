package cart

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// encodeLines serializes lines to the canonical persisted shape: a JSON array
// of {id, title, price, image, quantity} objects.
func encodeLines(lines []Line) []byte {
	e := &jx.Encoder{}
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(l.ProductID)
		e.FieldStart("title")
		e.Str(l.Title)
		e.FieldStart("price")
		e.Num(jx.Num(l.UnitPrice.String()))
		e.FieldStart("image")
		e.Str(l.ImageURL)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// decodeLines parses a persisted cart blob. It tolerates the legacy shapes
// written by earlier storefront versions: "name" instead of "title",
// "image_link" instead of "image", string-encoded ids and prices, and a
// missing quantity (defaults to 1). Entries without an id or a usable price
// are dropped. A malformed blob returns an error; the caller treats that as
// an empty cart.
func decodeLines(data []byte) ([]Line, error) {
	d := jx.DecodeBytes(data)

	var lines []Line
	if err := d.Arr(func(d *jx.Decoder) error {
		// Capture the element so one malformed entry drops only itself.
		elem, err := d.Raw()
		if err != nil {
			return err
		}
		l, ok, err := decodeLine(jx.DecodeBytes(elem))
		if err == nil && ok {
			lines = append(lines, l)
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart blob")
	}
	return lines, nil
}

func decodeLine(d *jx.Decoder) (Line, bool, error) {
	l := Line{Quantity: 1}
	priceSet := false

	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			v, err := decodeStringy(d)
			if err != nil {
				return err
			}
			l.ProductID = v
			return nil
		case "title", "name":
			v, err := d.Str()
			if err != nil {
				return err
			}
			if l.Title == "" {
				l.Title = v
			}
			return nil
		case "price":
			v, err := decodePrice(d)
			if err != nil {
				return err
			}
			l.UnitPrice = v
			priceSet = true
			return nil
		case "image", "image_link":
			v, err := d.Str()
			if err != nil {
				return err
			}
			if l.ImageURL == "" {
				l.ImageURL = v
			}
			return nil
		case "quantity":
			v, err := d.Int()
			if err != nil {
				return err
			}
			if v >= 1 {
				l.Quantity = v
			}
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return Line{}, false, err
	}

	if l.ProductID == "" || !priceSet || l.UnitPrice.IsNegative() {
		return Line{}, false, nil
	}
	return l, true, nil
}

// decodeStringy reads a value that legacy blobs store as either a JSON
// string or a JSON number.
func decodeStringy(d *jx.Decoder) (string, error) {
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
		if err := d.Skip(); err != nil {
			return "", err
		}
		return "", nil
	}
}

// decodePrice reads a monetary value stored as a JSON number or a numeric
// string.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	raw, err := decodeStringy(d)
	if err != nil {
		return decimal.Zero, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errors.New("empty price")
	}
	return decimal.NewFromString(raw)
}
