//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLiveProbe(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[healthResponse](t, resp)
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Status)
	}
	if len(body.Checks) != 0 {
		t.Errorf("unexpected failing liveness checks: %v", body.Checks)
	}
}

func TestReadyProbe(t *testing.T) {
	// Compose already waited for /readyz before the tests ran, so readiness
	// here confirms the catalog snapshot check keeps passing under load.
	resp := doGet(t, "/readyz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[healthResponse](t, resp)
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Status)
	}
	if len(body.Checks) != 0 {
		t.Errorf("unexpected failing readiness checks: %v", body.Checks)
	}
}
