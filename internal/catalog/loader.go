// Package catalog loads and caches the product catalog from static JSON
// endpoints. Sources are fetched concurrently with bounded retries; a failing
// source never aborts the others, and results always merge in the declared
// source order.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

// ErrAllSourcesFailed signals total load failure: every configured source was
// exhausted. Callers render a dedicated error state instead of an empty shop.
var ErrAllSourcesFailed = errors.New("all catalog sources failed")

// LoaderConfig tunes fetch behaviour. Zero values fall back to the defaults
// noted on each field.
type LoaderConfig struct {
	// Attempts is how many times a source is tried before giving up (default 3).
	Attempts int
	// Backoff is the initial delay between attempts, doubled each retry
	// (default 500ms).
	Backoff time.Duration
	// Timeout bounds a single fetch attempt (default 10s).
	Timeout time.Duration
	// Client is the HTTP client used for fetches (default http.DefaultClient).
	Client *http.Client
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	return c
}

// Loader fetches product sources. It has no state beyond its configuration
// and performs no side effects other than the network fetch.
type Loader struct {
	cfg LoaderConfig
}

// NewLoader creates a Loader with the given configuration.
func NewLoader(cfg LoaderConfig) *Loader {
	return &Loader{cfg: cfg.withDefaults()}
}

// Load fetches every source concurrently and returns the concatenation of
// all surviving records in declared source order. Records duplicated across
// sources keep their first occurrence. When every source fails, Load returns
// ErrAllSourcesFailed alongside an empty slice.
func (l *Loader) Load(ctx context.Context, sources []catalog.Source) ([]catalog.Product, error) {
	if len(sources) == 0 {
		return nil, ErrAllSourcesFailed
	}

	results := make([][]catalog.Product, len(sources))
	failures := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			products, err := l.loadSource(gctx, src)
			if err != nil {
				// Recorded, not returned: one source failing must not
				// cancel the sibling fetches.
				failures[i] = err
				zctx.From(ctx).Warn("Catalog source failed",
					zap.String("source", src.Name), zap.Error(err))
				return nil
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, err := range failures {
		if err != nil {
			failed++
		}
	}
	if failed == len(sources) {
		return nil, ErrAllSourcesFailed
	}

	seen := make(map[string]struct{})
	var merged []catalog.Product
	for _, products := range results {
		for _, p := range products {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged, nil
}

// loadSource fetches one source with retries and doubling backoff.
func (l *Loader) loadSource(ctx context.Context, src catalog.Source) ([]catalog.Product, error) {
	backoff := l.cfg.Backoff
	var lastErr error
	for attempt := 1; attempt <= l.cfg.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		products, err := l.fetchOnce(ctx, src)
		if err == nil {
			return products, nil
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "source %s exhausted after %d attempts", src.Name, l.cfg.Attempts)
}

func (l *Loader) fetchOnce(ctx context.Context, src catalog.Source) ([]catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cacheBust(src.URL), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := l.cfg.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	products, dropped, err := ParseProducts(body, src.Category)
	if err != nil {
		return nil, errors.Wrap(err, "parse body")
	}
	if dropped > 0 {
		zctx.From(ctx).Info("Dropped invalid catalog entries",
			zap.String("source", src.Name), zap.Int("dropped", dropped))
	}
	return products, nil
}

// cacheBust appends a v=<unix> query parameter so stale CDN copies of the
// data files are bypassed.
func cacheBust(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("v", fmt.Sprintf("%d", time.Now().Unix()))
	u.RawQuery = q.Encode()
	return u.String()
}
