// Package dispatch binds the opaque action identifiers emitted by the
// renderer to catalog and cart operations. The registry is populated exactly
// once: registering an already-bound action is rejected, which keeps repeated
// wiring idempotent. Every product action resolves the acting product first
// and degrades to a "product unavailable" notification when the id cannot be
// resolved, so an action never surfaces a broken page.
package dispatch

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/emirates-gifts/storefront/internal/catalog"
	"github.com/emirates-gifts/storefront/internal/domain/cart"
	"github.com/emirates-gifts/storefront/internal/notify"
	"github.com/emirates-gifts/storefront/internal/whatsapp"
)

// Action names an operation a rendered control can trigger.
type Action string

const (
	ActionAddToCart   Action = "add-to-cart"
	ActionOrderNow    Action = "order-now"
	ActionViewDetails Action = "view-details"
	ActionIncrement   Action = "increment"
	ActionDecrement   Action = "decrement"
	ActionSetQuantity Action = "set-quantity"
	ActionRemove      Action = "remove"
	ActionClear       Action = "clear"
)

// ErrAlreadyBound is returned when an action name is registered twice.
var ErrAlreadyBound = errors.New("action already bound")

// Request carries one triggered action.
type Request struct {
	Action    Action
	CartID    string
	ProductID string
	// Quantity is only meaningful for set-quantity.
	Quantity int
}

// Outcome is what the UI does after an action: show a notification, announce
// for assistive technology, and optionally redirect.
type Outcome struct {
	Message  string
	Kind     notify.Kind
	Announce string
	// RedirectURL sends the user somewhere other than back to the page they
	// acted on (detail page, checkout deep link). Empty means "stay".
	RedirectURL string
}

// Handler executes one action.
type Handler func(ctx context.Context, req Request) Outcome

// Dispatcher routes action requests to their bound handlers.
type Dispatcher struct {
	catalog *catalog.Store
	carts   *cart.Service
	links   *whatsapp.Builder

	handlers map[Action]Handler
}

// New creates a Dispatcher with the built-in actions bound.
func New(catalogStore *catalog.Store, carts *cart.Service, links *whatsapp.Builder) *Dispatcher {
	d := &Dispatcher{
		catalog:  catalogStore,
		carts:    carts,
		links:    links,
		handlers: make(map[Action]Handler),
	}

	// Built-in bindings cannot collide, so errors here are impossible.
	_ = d.Register(ActionAddToCart, d.addToCart)
	_ = d.Register(ActionOrderNow, d.orderNow)
	_ = d.Register(ActionViewDetails, d.viewDetails)
	_ = d.Register(ActionIncrement, d.adjust(1))
	_ = d.Register(ActionDecrement, d.adjust(-1))
	_ = d.Register(ActionSetQuantity, d.setQuantity)
	_ = d.Register(ActionRemove, d.remove)
	_ = d.Register(ActionClear, d.clear)

	return d
}

// Register binds a handler to an action name. Binding the same name twice
// returns ErrAlreadyBound.
func (d *Dispatcher) Register(a Action, h Handler) error {
	if _, bound := d.handlers[a]; bound {
		return errors.Wrapf(ErrAlreadyBound, "action %q", a)
	}
	d.handlers[a] = h
	return nil
}

// Dispatch runs the handler bound to the request's action. Unknown actions
// produce an error notification, never a failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Outcome {
	h, ok := d.handlers[req.Action]
	if !ok {
		return Outcome{Message: "Unknown action", Kind: notify.KindError}
	}
	return h(ctx, req)
}

func unavailable() Outcome {
	return Outcome{
		Message:  "Product unavailable",
		Kind:     notify.KindError,
		Announce: "Product unavailable",
	}
}

func (d *Dispatcher) addToCart(ctx context.Context, req Request) Outcome {
	p, ok := d.catalog.Resolve(req.ProductID)
	if !ok {
		return unavailable()
	}

	_, err := d.carts.AddOrIncrement(ctx, req.CartID, p.ID, cart.Snapshot{
		Title:     p.Title,
		UnitPrice: p.SalePrice,
		ImageURL:  p.ImageURL,
	})
	if err != nil {
		return Outcome{Message: "Could not update the cart", Kind: notify.KindError}
	}

	return Outcome{
		Message:  "Added " + p.Title + " to the cart",
		Kind:     notify.KindSuccess,
		Announce: p.Title + " added to cart",
	}
}

func (d *Dispatcher) orderNow(_ context.Context, req Request) Outcome {
	p, ok := d.catalog.Resolve(req.ProductID)
	if !ok {
		return unavailable()
	}
	return Outcome{
		Message:     "Opening your order",
		Kind:        notify.KindSuccess,
		Announce:    "Opening order for " + p.Title,
		RedirectURL: d.links.ProductLink(p),
	}
}

func (d *Dispatcher) viewDetails(_ context.Context, req Request) Outcome {
	p, ok := d.catalog.Resolve(req.ProductID)
	if !ok {
		return unavailable()
	}
	return Outcome{RedirectURL: p.PagePath()}
}

// adjust returns the increment/decrement handler. Quantity changes operate
// on the cart snapshot alone, so they keep working when the catalog is down.
func (d *Dispatcher) adjust(delta int) Handler {
	return func(ctx context.Context, req Request) Outcome {
		_, err := d.carts.Adjust(ctx, req.CartID, req.ProductID, delta)
		if err != nil {
			if errors.Is(err, cart.ErrLineNotFound) {
				return unavailable()
			}
			return Outcome{Message: "Could not update the cart", Kind: notify.KindError}
		}
		return Outcome{
			Message:  "Cart updated",
			Kind:     notify.KindSuccess,
			Announce: "Cart updated",
		}
	}
}

// setQuantity replaces a line's quantity outright. Like the adjust handlers
// it never touches the catalog; a quantity below 1 removes the line.
func (d *Dispatcher) setQuantity(ctx context.Context, req Request) Outcome {
	if _, err := d.carts.SetQuantity(ctx, req.CartID, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			return unavailable()
		}
		return Outcome{Message: "Could not update the cart", Kind: notify.KindError}
	}
	return Outcome{
		Message:  "Cart updated",
		Kind:     notify.KindSuccess,
		Announce: "Cart updated",
	}
}

func (d *Dispatcher) remove(ctx context.Context, req Request) Outcome {
	if _, err := d.carts.Remove(ctx, req.CartID, req.ProductID); err != nil {
		return Outcome{Message: "Could not update the cart", Kind: notify.KindError}
	}
	return Outcome{
		Message:  "Removed from cart",
		Kind:     notify.KindSuccess,
		Announce: "Item removed from cart",
	}
}

func (d *Dispatcher) clear(ctx context.Context, req Request) Outcome {
	if err := d.carts.Clear(ctx, req.CartID); err != nil {
		return Outcome{Message: "Could not clear the cart", Kind: notify.KindError}
	}
	return Outcome{
		Message:  "Cart cleared",
		Kind:     notify.KindSuccess,
		Announce: "Cart cleared",
	}
}
