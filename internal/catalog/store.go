package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

// Store caches the normalized catalog in memory for the page-session
// lifetime and resolves products by id for the action dispatcher.
type Store struct {
	loader  *Loader
	sources []catalog.Source

	mu       sync.RWMutex
	products []catalog.Product
	byID     map[string]catalog.Product
	loadErr  error
	loadedAt time.Time
}

// NewStore creates a Store over the given loader and source list. The store
// is empty until the first Refresh.
func NewStore(loader *Loader, sources []catalog.Source) *Store {
	return &Store{
		loader:  loader,
		sources: sources,
		byID:    make(map[string]catalog.Product),
	}
}

// Refresh reloads the catalog. On total failure the previous snapshot is
// kept, so a transient outage after a successful load does not blank the
// shop; the failure is still recorded for Failed().
func (s *Store) Refresh(ctx context.Context) error {
	products, err := s.loader.Load(ctx, s.sources)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadErr = err
	if err != nil {
		if errors.Is(err, ErrAllSourcesFailed) && len(s.products) > 0 {
			return nil
		}
		return err
	}

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	s.products = products
	s.byID = byID
	s.loadedAt = time.Now()
	return nil
}

// Products returns the cached records in load order.
func (s *Store) Products() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// Resolve looks up a product by id.
func (s *Store) Resolve(id string) (catalog.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

// Failed reports whether the store has nothing to show because every source
// failed. Callers render the dedicated error state with a retry action.
func (s *Store) Failed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products) == 0 && s.loadErr != nil
}

// SnapshotCheck returns a readiness probe that fails while the store has no
// catalog snapshot to serve.
func SnapshotCheck(s *Store) func(ctx context.Context) error {
	return func(context.Context) error {
		if s.Failed() {
			return errors.New("no catalog snapshot: all sources failing")
		}
		return nil
	}
}

// LoadedAt returns when the current snapshot was taken; zero when the store
// has never loaded successfully.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
