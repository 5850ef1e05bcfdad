package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Storage is the persisted keyspace the cart lives in. Implementations must
// treat Set as a full replacement of the value under key.
type Storage interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// canonicalKeyPrefix is the single storage namespace carts are kept under.
// Earlier storefront versions scattered carts across three divergent keys;
// the legacy prefixes are read once, merged, and deleted on first access.
const canonicalKeyPrefix = "emirates_cart/"

var legacyKeyPrefixes = []string{
	"emirates_shopping_cart/",
	"emirates_final_cart/",
}

// ErrLineNotFound is returned by Adjust and SetQuantity when the cart has no
// line for the given product.
var ErrLineNotFound = errors.New("cart line not found")

// Service is the cart store: every mutation is a read-modify-write of the
// whole persisted collection, so two UI-triggered mutations never observe a
// partial state. Concurrent writers from separate processes are
// last-write-wins, an accepted limitation of the single-profile design.
type Service struct {
	store   Storage
	pricing Pricing
}

// NewService creates a cart Service over the given storage.
func NewService(store Storage, pricing Pricing) *Service {
	return &Service{store: store, pricing: pricing}
}

// Read returns the current lines in insertion order. It never fails: a
// storage error or corrupted blob yields an empty cart and a warning log.
func (s *Service) Read(ctx context.Context, cartID string) []Line {
	lines, err := s.load(ctx, cartID)
	if err != nil {
		zctx.From(ctx).Warn("Cart blob unreadable, treating as empty",
			zap.String("cart_id", cartID), zap.Error(err))
		return nil
	}
	return lines
}

// AddOrIncrement inserts a new line built from snap, or bumps the quantity
// of the existing line for productID. Repeated adds never duplicate a line.
func (s *Service) AddOrIncrement(ctx context.Context, cartID, productID string, snap Snapshot) ([]Line, error) {
	lines := s.Read(ctx, cartID)

	found := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, Line{
			ProductID: productID,
			Title:     snap.Title,
			UnitPrice: snap.UnitPrice,
			ImageURL:  snap.ImageURL,
			Quantity:  1,
		})
	}

	if err := s.persist(ctx, cartID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetQuantity sets the quantity for productID. A quantity below 1 removes
// the line; the cart never holds a line with quantity ≤ 0. Setting a positive
// quantity on a missing line returns ErrLineNotFound; removing a missing line
// stays a no-op so Remove keeps its semantics.
func (s *Service) SetQuantity(ctx context.Context, cartID, productID string, quantity int) ([]Line, error) {
	lines := s.Read(ctx, cartID)

	found := false
	out := lines[:0]
	for _, l := range lines {
		if l.ProductID == productID {
			found = true
			if quantity < 1 {
				continue
			}
			l.Quantity = quantity
		}
		out = append(out, l)
	}
	if !found && quantity >= 1 {
		return nil, ErrLineNotFound
	}

	if err := s.persist(ctx, cartID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Adjust changes the quantity of an existing line by delta. Dropping below 1
// removes the line. Returns ErrLineNotFound when no line matches.
func (s *Service) Adjust(ctx context.Context, cartID, productID string, delta int) ([]Line, error) {
	lines := s.Read(ctx, cartID)
	for _, l := range lines {
		if l.ProductID == productID {
			return s.SetQuantity(ctx, cartID, productID, l.Quantity+delta)
		}
	}
	return nil, ErrLineNotFound
}

// Remove deletes the line for productID. Removing an absent line is a no-op,
// not an error.
func (s *Service) Remove(ctx context.Context, cartID, productID string) ([]Line, error) {
	return s.SetQuantity(ctx, cartID, productID, 0)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.persist(ctx, cartID, nil)
}

// Totals computes the derived amounts for the given lines.
func (s *Service) Totals(lines []Line) Totals {
	return s.pricing.Totals(lines)
}

// load reads the canonical blob, folding any legacy-key blobs in on first
// access. Canonical lines win over legacy ones per product id; legacy keys
// are deleted once consumed.
func (s *Service) load(ctx context.Context, cartID string) ([]Line, error) {
	data, ok, err := s.store.Get(ctx, canonicalKeyPrefix+cartID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}

	var lines []Line
	if ok {
		if lines, err = decodeLines(data); err != nil {
			return nil, err
		}
	}

	migrated, err := s.collectLegacy(ctx, cartID, lines)
	if err != nil {
		return nil, err
	}
	if migrated != nil {
		lines = migrated
		if err := s.persist(ctx, cartID, lines); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

// collectLegacy merges blobs found under the legacy prefixes into lines and
// deletes them. It returns nil when no legacy blob was present.
func (s *Service) collectLegacy(ctx context.Context, cartID string, lines []Line) ([]Line, error) {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		seen[l.ProductID] = struct{}{}
	}

	merged := lines
	found := false
	for _, prefix := range legacyKeyPrefixes {
		key := prefix + cartID
		data, ok, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "read legacy cart %q", key)
		}
		if !ok {
			continue
		}
		found = true

		legacy, err := decodeLines(data)
		if err != nil {
			// A corrupt legacy blob is dropped, not fatal.
			zctx.From(ctx).Warn("Legacy cart blob unreadable, dropping",
				zap.String("key", key), zap.Error(err))
		}
		for _, l := range legacy {
			if _, dup := seen[l.ProductID]; dup {
				continue
			}
			seen[l.ProductID] = struct{}{}
			merged = append(merged, l)
		}
		if err := s.store.Delete(ctx, key); err != nil {
			return nil, errors.Wrapf(err, "delete legacy cart %q", key)
		}
	}

	if !found {
		return nil, nil
	}
	return merged, nil
}

func (s *Service) persist(ctx context.Context, cartID string, lines []Line) error {
	if err := s.store.Set(ctx, canonicalKeyPrefix+cartID, encodeLines(lines)); err != nil {
		return errors.Wrap(err, "persist cart")
	}
	return nil
}
