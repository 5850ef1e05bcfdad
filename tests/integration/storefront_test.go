//go:build integration

package integration

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestHome_ListsBothSources(t *testing.T) {
	resp, body := getBody(t, "/")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}

	// Perfumes come first, then watches; legacy field names and numeric ids
	// in the data files must all survive normalization.
	for _, want := range []string{"Oud Royale", "Desert Rose", "Amber Nights", "Classic Chrono", "Golden Hour"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing product %q", want)
		}
	}
	if !strings.Contains(body, `data-action="add-to-cart"`) {
		t.Error("home page missing add-to-cart controls")
	}
}

func TestProductPage(t *testing.T) {
	resp, body := getBody(t, "/products/1")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "<h1>Oud Royale</h1>") {
		t.Error("detail page missing product title")
	}
	if !strings.Contains(body, "-17%") {
		t.Error("detail page missing discount badge")
	}
}

func TestProductPage_UnknownRedirectsHome(t *testing.T) {
	resp := doGet(t, "/products/does-not-exist")
	resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}
}

func TestCartFlow(t *testing.T) {
	resp := postAction(t, "add-to-cart", "1")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}

	_, body := getBody(t, "/cart")
	if !strings.Contains(body, `data-product-id="1"`) {
		t.Fatal("cart missing added line")
	}
	if !strings.Contains(body, "250.00 AED") {
		t.Error("cart line not priced at the sale price")
	}

	// Repeat add aggregates onto the same line.
	postAction(t, "add-to-cart", "1")
	_, body = getBody(t, "/cart")
	if !strings.Contains(body, `<span class="line-quantity">2</span>`) {
		t.Error("repeated add did not increment quantity")
	}

	// 2 x 250 = 500 AED is above the free shipping threshold.
	if !strings.Contains(body, "Shipping: <span>Free</span>") {
		t.Error("expected free shipping above threshold")
	}

	resp = doGet(t, "/checkout")
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("checkout: expected 303, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "https://wa.me/") {
		t.Fatalf("checkout redirect: got %q", loc)
	}
	u, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("parse checkout link: %v", err)
	}
	text := u.Query().Get("text")
	if !strings.Contains(text, "Oud Royale x2") || !strings.Contains(text, "Total: 500.00 AED") {
		t.Errorf("unexpected order message: %q", text)
	}

	postAction(t, "clear", "")
	_, body = getBody(t, "/cart")
	if !strings.Contains(body, "Your cart is empty.") {
		t.Error("clear did not empty the cart")
	}
}

func TestFeedAndSitemap(t *testing.T) {
	resp, body := getBody(t, "/feed.xml")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feed: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "<g:id>1</g:id>") {
		t.Error("feed missing product 1")
	}
	if !strings.Contains(body, "<g:sale_price>250.00 AED</g:sale_price>") {
		t.Error("feed missing sale price for discounted product")
	}

	resp, body = getBody(t, "/sitemap.xml")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sitemap: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "/products/10</loc>") {
		t.Error("sitemap missing watch product URL")
	}
}
