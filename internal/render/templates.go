package render

// templates holds every markup fragment. Action controls carry data-action
// and data-product-id attributes only; the dispatcher supplies behaviour.
const templates = `
{{define "product-card" -}}
<article class="product-card" data-product-id="{{.ID}}">
  <div class="product-image">
    <img src="{{.ImageURL}}" alt="{{.Title}}" data-fallback="{{.Placeholder}}">
    {{if .HasDiscount}}<span class="badge discount-badge">-{{.DiscountPercent}}%</span>{{end}}
    <span class="badge category-badge">{{.CategoryIcon}} {{.CategoryLabel}}</span>
  </div>
  <h3 class="product-title">{{.Title}}</h3>
  <p class="product-price">
    <span class="sale-price">{{.SalePrice}}</span>
    {{if .HasDiscount}}<s class="list-price">{{.ListPrice}}</s>{{end}}
  </p>
  <div class="product-actions">
    <form method="post" action="/cart/actions">
      <input type="hidden" name="product_id" value="{{.ID}}">
      <button name="action" value="add-to-cart" data-action="add-to-cart" data-product-id="{{.ID}}">Add to cart</button>
      <button name="action" value="order-now" data-action="order-now" data-product-id="{{.ID}}">Order now</button>
    </form>
    <a href="{{.DetailURL}}" data-action="view-details" data-product-id="{{.ID}}">View details</a>
  </div>
</article>
{{- end}}

{{define "product-list" -}}
<section class="product-grid">
{{range . -}}
{{template "product-card" .}}
{{end -}}
</section>
{{- end}}

{{define "product-detail" -}}
<section class="product-detail" data-product-id="{{.ID}}">
  <img src="{{.ImageURL}}" alt="{{.Title}}" data-fallback="{{.Placeholder}}">
  <h1>{{.Title}}</h1>
  <p class="category">{{.CategoryIcon}} {{.CategoryLabel}}</p>
  <p class="product-price">
    <span class="sale-price">{{.SalePrice}}</span>
    {{if .HasDiscount}}<s class="list-price">{{.ListPrice}}</s> <span class="badge discount-badge">-{{.DiscountPercent}}%</span>{{end}}
  </p>
  <form method="post" action="/cart/actions">
    <input type="hidden" name="product_id" value="{{.ID}}">
    <button name="action" value="add-to-cart" data-action="add-to-cart" data-product-id="{{.ID}}">Add to cart</button>
    <button name="action" value="order-now" data-action="order-now" data-product-id="{{.ID}}">Order now</button>
  </form>
</section>
{{- end}}

{{define "cart" -}}
{{if not .Lines -}}
<section class="cart cart-empty">
  <p>Your cart is empty.</p>
  <a href="/">Back to the shop</a>
</section>
{{- else -}}
<section class="cart">
  <ul class="cart-lines">
  {{range .Lines -}}
    <li class="cart-line" data-product-id="{{.ProductID}}">
      <img src="{{.ImageURL}}" alt="{{.Title}}">
      <span class="line-title">{{.Title}}</span>
      <span class="line-price">{{.UnitPrice}}</span>
      <form method="post" action="/cart/actions" class="line-controls">
        <input type="hidden" name="product_id" value="{{.ProductID}}">
        <button name="action" value="decrement" data-action="decrement" data-product-id="{{.ProductID}}">−</button>
        <span class="line-quantity">{{.Quantity}}</span>
        <button name="action" value="increment" data-action="increment" data-product-id="{{.ProductID}}">+</button>
        <button name="action" value="remove" data-action="remove" data-product-id="{{.ProductID}}">Remove</button>
      </form>
      <span class="line-total">{{.LineTotal}}</span>
    </li>
  {{end -}}
  </ul>
  <div class="cart-totals">
    <p class="subtotal">Subtotal: <span>{{.Subtotal}}</span></p>
    <p class="shipping">Shipping: <span>{{if .FreeShipping}}Free{{else}}{{.ShippingFee}}{{end}}</span></p>
    {{if not .FreeShipping -}}
    <p class="shipping-notice">Add {{.RemainingToFree}} more for free shipping.</p>
    {{end -}}
    <p class="total">Total: <span>{{.Total}}</span></p>
  </div>
  <div class="cart-actions">
    <a href="/checkout" class="checkout-link">Checkout</a>
    <form method="post" action="/cart/actions">
      <button name="action" value="clear" data-action="clear">Clear cart</button>
    </form>
  </div>
</section>
{{- end}}
{{- end}}

{{define "catalog-error" -}}
<section class="catalog-error">
  <p>Products could not be loaded right now.</p>
  <form method="post" action="/catalog/refresh">
    <button data-action="retry-load">Try again</button>
  </form>
</section>
{{- end}}

{{define "page" -}}
<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | {{.StoreName}}</title>
</head>
<body>
<header>
  <a href="/" class="store-name">{{.StoreName}}</a>
  <a href="/cart" class="cart-link">Cart <span class="cart-count">{{.CartCount}}</span></a>
</header>
{{if .Notice -}}
<div class="notification notification-{{.Notice.Kind}}" role="status">{{.Notice.Message}}</div>
{{end -}}
<div class="sr-announcer" aria-live="polite">{{.Announcement}}</div>
<main>
{{.Body}}
</main>
</body>
</html>
{{- end}}
`
