package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/emirates-gifts/storefront/internal/catalog"
	"github.com/emirates-gifts/storefront/internal/dispatch"
	"github.com/emirates-gifts/storefront/internal/domain/cart"
	"github.com/emirates-gifts/storefront/internal/domain/order"
	"github.com/emirates-gifts/storefront/internal/notify"
	"github.com/emirates-gifts/storefront/internal/render"
	"github.com/emirates-gifts/storefront/internal/server"
	"github.com/emirates-gifts/storefront/internal/storage/memory"
	"github.com/emirates-gifts/storefront/internal/storage/postgres"
	"github.com/emirates-gifts/storefront/internal/whatsapp"
	"github.com/emirates-gifts/storefront/pkg/health"
	"github.com/emirates-gifts/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Cart storage: PostgreSQL when a database is configured, in-memory
	// otherwise. The in-memory mode also disables order archiving.
	var (
		cartStorage cart.Storage
		orderRepo   order.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		cartStorage = postgres.NewKVStore(pool)
		orderRepo = postgres.NewOrderRepository(pool)
	} else {
		lg.Info("No database configured, using in-memory cart storage")
		cartStorage = memory.New()
	}

	// Catalog: loader + session cache, refreshed periodically.
	loader := catalog.NewLoader(catalog.LoaderConfig{
		Attempts: cfg.Catalog.FetchAttempts,
		Timeout:  cfg.Catalog.FetchTimeout,
	})
	catalogStore := catalog.NewStore(loader, cfg.Catalog.Sources())
	if err := catalogStore.Refresh(zctx.Base(ctx, lg)); err != nil {
		// Total failure is not fatal: the storefront serves its dedicated
		// error state with a manual retry until a refresh succeeds.
		lg.Warn("Initial catalog load failed", zap.Error(err))
	}
	go refreshLoop(zctx.Base(ctx, lg), catalogStore, cfg.Catalog.RefreshInterval)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", 5*time.Second, catalog.SnapshotCheck(catalogStore))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	carts := cart.NewService(cartStorage, cfg.Shipping.Pricing())
	orders := order.NewService(orderRepo)
	notices := notify.NewCenter(ctx)
	links := whatsapp.NewBuilder("", cfg.WhatsAppPhone)

	renderer, err := render.New(render.Config{BaseURL: cfg.BaseURL})
	if err != nil {
		return errors.Wrap(err, "create renderer")
	}

	dispatcher := dispatch.New(catalogStore, carts, links)
	storefront := server.New(renderer, catalogStore, carts, dispatcher, notices, links, orders)

	// Mux: health endpoints + storefront routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", storefront.Routes())

	handler := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			// Keyed on the cart cookie so shoppers behind one NAT address do
			// not share a budget; cookieless requests fall back to client IP.
			SessionCookie: "cart_id",
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)
	handler = otelhttp.NewHandler(handler, "storefront",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	httpServer := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// refreshLoop reloads the catalog at the configured interval until ctx is
// cancelled.
func refreshLoop(ctx context.Context, store *catalog.Store, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Refresh(ctx); err != nil {
				zctx.From(ctx).Warn("Catalog refresh failed", zap.Error(err))
			}
		}
	}
}
