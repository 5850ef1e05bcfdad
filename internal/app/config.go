package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/emirates-gifts/storefront/internal/domain/cart"
	"github.com/emirates-gifts/storefront/internal/domain/catalog"
)

// Config holds the complete application configuration, loadable from
// environment variables (EMIRATES_ prefix), flags, or YAML config files.
type Config struct {
	Addr string `default:"0.0.0.0:8080" usage:"Storefront listen address"`
	// DatabaseURL is optional: without it the storefront keeps carts in
	// memory and skips order archiving, matching static-hosting deployments.
	DatabaseURL   string `usage:"PostgreSQL connection URL (EMIRATES_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	BaseURL       string `default:"https://www.emirates-gifts.ae" usage:"Public store URL used in links, the feed, and the sitemap" flag:"base-url"`
	WhatsAppPhone string `default:"971501234567" usage:"Destination phone for checkout deep links" flag:"whatsapp-phone"`

	Catalog   CatalogConfig
	Shipping  ShippingConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CatalogConfig controls catalog source fetching.
type CatalogConfig struct {
	PerfumesURL     string        `default:"https://www.emirates-gifts.ae/data/otor.json"  usage:"Perfumes source endpoint" flag:"perfumes-url"`
	WatchesURL      string        `default:"https://www.emirates-gifts.ae/data/sa3at.json" usage:"Watches source endpoint" flag:"watches-url"`
	RefreshInterval time.Duration `default:"15m" usage:"How often the catalog is reloaded" flag:"refresh-interval"`
	FetchTimeout    time.Duration `default:"10s" usage:"Per-attempt fetch timeout" flag:"fetch-timeout"`
	FetchAttempts   int           `default:"3"   usage:"Attempts per source before giving up" flag:"fetch-attempts"`
}

// Sources returns the declared source list; merge order follows this order.
func (c CatalogConfig) Sources() []catalog.Source {
	return []catalog.Source{
		{Name: "otor", URL: c.PerfumesURL, Category: catalog.CategoryPerfumes},
		{Name: "sa3at", URL: c.WatchesURL, Category: catalog.CategoryWatches},
	}
}

// ShippingConfig controls the shipping fee rules, in whole AED.
type ShippingConfig struct {
	FreeThreshold int `default:"200" usage:"Subtotal at which shipping becomes free" flag:"free-shipping-threshold"`
	FlatFee       int `default:"25"  usage:"Flat shipping fee below the threshold" flag:"shipping-fee"`
}

// Pricing converts the configured amounts to cart pricing rules.
func (c ShippingConfig) Pricing() cart.Pricing {
	return cart.Pricing{
		FreeShippingThreshold: decimal.NewFromInt(int64(c.FreeThreshold)),
		FlatShippingFee:       decimal.NewFromInt(int64(c.FlatFee)),
	}
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "EMIRATES",
		Files:     []string{"config.yaml", "/etc/emirates/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's EMIRATES_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
