// Command feedgen generates the storefront's static artifacts from the
// product data files: the Google Merchant XML feed (plain and gzipped), the
// sitemap, and a self-contained HTML detail page per product.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/emirates-gifts/storefront/internal/catalog"
	domain "github.com/emirates-gifts/storefront/internal/domain/catalog"
	"github.com/emirates-gifts/storefront/internal/render"
)

// dataFiles maps the well-known data file names to their categories, in
// merge order.
var dataFiles = []struct {
	name     string
	category domain.Category
}{
	{"otor.json", domain.CategoryPerfumes},
	{"sa3at.json", domain.CategoryWatches},
}

func main() {
	var (
		dataDir string
		outDir  string
		baseURL string
		gz      bool
		pages   bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing otor.json and sa3at.json")
	flag.StringVar(&outDir, "out", "public", "output directory for generated artifacts")
	flag.StringVar(&baseURL, "base-url", "https://www.emirates-gifts.ae", "public store URL used in links")
	flag.BoolVar(&gz, "gzip", true, "also write feed.xml.gz")
	flag.BoolVar(&pages, "pages", true, "write per-product HTML detail pages")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, outDir, baseURL, gz, pages); err != nil {
		slog.Error("feed generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("feed generation completed")
}

func run(_ context.Context, dataDir, outDir, baseURL string, gz, pages bool) error {
	products, err := loadProducts(dataDir)
	if err != nil {
		return err
	}
	slog.Info("catalog loaded", slog.Int("products", len(products)))

	renderer, err := render.New(render.Config{BaseURL: baseURL})
	if err != nil {
		return errors.Wrap(err, "create renderer")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	feed, err := renderer.MerchantFeed(products)
	if err != nil {
		return errors.Wrap(err, "render feed")
	}
	if err := os.WriteFile(filepath.Join(outDir, "feed.xml"), feed, 0o644); err != nil {
		return errors.Wrap(err, "write feed")
	}
	if gz {
		if err := writeGzipped(filepath.Join(outDir, "feed.xml.gz"), feed); err != nil {
			return err
		}
	}

	sitemap, err := renderer.Sitemap(products)
	if err != nil {
		return errors.Wrap(err, "render sitemap")
	}
	if err := os.WriteFile(filepath.Join(outDir, "sitemap.xml"), sitemap, 0o644); err != nil {
		return errors.Wrap(err, "write sitemap")
	}

	if pages {
		if err := writeProductPages(renderer, products, filepath.Join(outDir, "products")); err != nil {
			return err
		}
	}

	return nil
}

// loadProducts parses the local data files. A missing file is skipped (the
// shop may carry only one category); the run fails only when no file yields
// any products.
func loadProducts(dataDir string) ([]domain.Product, error) {
	var all []domain.Product
	seen := make(map[string]struct{})

	for _, f := range dataFiles {
		path := filepath.Join(dataDir, f.name)
		body, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Warn("data file missing, skipping", slog.String("file", path))
				continue
			}
			return nil, errors.Wrapf(err, "read %s", path)
		}

		products, dropped, err := catalog.ParseProducts(body, f.category)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
		if dropped > 0 {
			slog.Warn("dropped invalid entries", slog.String("file", f.name), slog.Int("dropped", dropped))
		}
		for _, p := range products {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			all = append(all, p)
		}
	}

	if len(all) == 0 {
		return nil, errors.New("no products found in data files")
	}
	return all, nil
}

func writeGzipped(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	gz := pgzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := gz.Close(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "flush %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

func writeProductPages(renderer *render.Renderer, products []domain.Product, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create pages dir")
	}

	for _, p := range products {
		page, err := renderer.ProductPage(p)
		if err != nil {
			return errors.Wrapf(err, "render page for %s", p.ID)
		}
		path := filepath.Join(dir, p.ID+".html")
		if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}

	slog.Info("product pages written", slog.Int("count", len(products)))
	return nil
}
