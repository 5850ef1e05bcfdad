// Package server exposes the storefront over HTTP: rendered pages, the cart
// action endpoint, checkout, and the generated XML artifacts.
package server

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/emirates-gifts/storefront/internal/catalog"
	"github.com/emirates-gifts/storefront/internal/dispatch"
	"github.com/emirates-gifts/storefront/internal/domain/cart"
	"github.com/emirates-gifts/storefront/internal/domain/order"
	"github.com/emirates-gifts/storefront/internal/notify"
	"github.com/emirates-gifts/storefront/internal/render"
	"github.com/emirates-gifts/storefront/internal/whatsapp"
)

// cartCookie identifies the browser profile's cart, standing in for the
// origin scoping localStorage used to provide.
const cartCookie = "cart_id"

// Server holds the storefront's request-handling dependencies.
type Server struct {
	renderer   *render.Renderer
	catalog    *catalog.Store
	carts      *cart.Service
	dispatcher *dispatch.Dispatcher
	notices    *notify.Center
	links      *whatsapp.Builder
	orders     *order.Service
}

// New creates a Server.
func New(
	renderer *render.Renderer,
	catalogStore *catalog.Store,
	carts *cart.Service,
	dispatcher *dispatch.Dispatcher,
	notices *notify.Center,
	links *whatsapp.Builder,
	orders *order.Service,
) *Server {
	return &Server{
		renderer:   renderer,
		catalog:    catalogStore,
		carts:      carts,
		dispatcher: dispatcher,
		notices:    notices,
		links:      links,
		orders:     orders,
	}
}

// Routes builds the storefront router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.handleHome)
	r.Get("/products/{id}", s.handleProduct)
	r.Get("/cart", s.handleCart)
	r.Post("/cart/actions", s.handleCartAction)
	r.Post("/catalog/refresh", s.handleCatalogRefresh)
	r.Get("/checkout", s.handleCheckout)
	r.Get("/feed.xml", s.handleFeed)
	r.Get("/feed.xml.gz", s.handleFeedGz)
	r.Get("/sitemap.xml", s.handleSitemap)

	return r
}

// cartID returns the cart id from the request cookie, issuing a fresh one
// when the cookie is absent or unusable.
func (s *Server) cartID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	id := s.cartID(w, r)

	var (
		body template.HTML
		err  error
	)
	if s.catalog.Failed() {
		body, err = s.renderer.CatalogError()
	} else {
		body, err = s.renderer.ProductList(s.catalog.Products())
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePage(w, r, "Shop", id, body)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := s.cartID(w, r)

	p, ok := s.catalog.Resolve(chi.URLParam(r, "id"))
	if !ok {
		s.notices.Notify(id, "Product unavailable", notify.KindError)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	body, err := s.renderer.ProductDetail(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePage(w, r, p.Title, id, body)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	id := s.cartID(w, r)

	lines := s.carts.Read(r.Context(), id)
	body, err := s.renderer.Cart(lines, s.carts.Totals(lines))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePage(w, r, "Cart", id, body)
}

func (s *Server) handleCartAction(w http.ResponseWriter, r *http.Request) {
	id := s.cartID(w, r)

	if err := r.ParseForm(); err != nil {
		s.notices.Notify(id, "Invalid request", notify.KindError)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	quantity, _ := strconv.Atoi(r.PostFormValue("quantity"))
	outcome := s.dispatcher.Dispatch(r.Context(), dispatch.Request{
		Action:    dispatch.Action(r.PostFormValue("action")),
		CartID:    id,
		ProductID: r.PostFormValue("product_id"),
		Quantity:  quantity,
	})

	if outcome.Message != "" {
		s.notices.Notify(id, outcome.Message, outcome.Kind)
	}
	if outcome.Announce != "" {
		s.notices.Announce(id, outcome.Announce)
	}

	target := outcome.RedirectURL
	if target == "" {
		target = localPath(r.Referer())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// localPath keeps the post-action fallback redirect on this site. The
// Referer header is client-controlled, so only a same-site path is accepted;
// absolute and scheme-relative URLs fall back to the storefront root.
func localPath(ref string) string {
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return ref
	}
	return "/"
}

func (s *Server) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Refresh(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Manual catalog refresh failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id := s.cartID(w, r)

	lines := s.carts.Read(r.Context(), id)
	if len(lines) == 0 {
		s.notices.Notify(id, "Your cart is empty", notify.KindError)
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	totals := s.carts.Totals(lines)

	// Archiving is best effort: a storage outage must not block checkout.
	if _, err := s.orders.Snapshot(r.Context(), id, lines, totals); err != nil {
		zctx.From(r.Context()).Warn("Order snapshot failed", zap.Error(err))
	}

	http.Redirect(w, r, s.links.OrderLink(lines, totals), http.StatusSeeOther)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	out, err := s.renderer.MerchantFeed(s.catalog.Products())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

func (s *Server) handleFeedGz(w http.ResponseWriter, r *http.Request) {
	out, err := s.renderer.MerchantFeed(s.catalog.Products())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	gz := pgzip.NewWriter(w)
	if _, err := gz.Write(out); err != nil {
		zctx.From(r.Context()).Error("Write gzipped feed", zap.Error(err))
		return
	}
	if err := gz.Close(); err != nil {
		zctx.From(r.Context()).Error("Flush gzipped feed", zap.Error(err))
	}
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	out, err := s.renderer.Sitemap(s.catalog.Products())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

// writePage renders body into the page shell with the session's cart count,
// notification, and announcement.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, title, cartID string, body template.HTML) {
	totals := s.carts.Totals(s.carts.Read(r.Context(), cartID))

	var notice *render.NoticeView
	if n := s.notices.Current(cartID); n != nil {
		notice = &render.NoticeView{Message: n.Message, Kind: string(n.Kind)}
	}

	page, err := s.renderer.Page(title, totals.ItemCount, notice, s.notices.Announcement(cartID), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// fail logs the render error and responds 500. Data-level problems never
// reach here; this only fires on template execution failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Render failed", zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
