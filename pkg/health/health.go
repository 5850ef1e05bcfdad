// Package health implements liveness and readiness probes for the
// storefront server.
//
// Registered checks run on a single background ticker; their latest result is
// cached and served by the probe endpoints, so a probe request never blocks on
// a slow check. A check is unhealthy as soon as its last run returned an
// error.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type kind int

const (
	liveness kind = iota
	readiness
)

// check pairs a registered CheckFunc with its cached last result. lastErr is
// written by the runner goroutine and read by probe handlers.
type check struct {
	name    string
	timeout time.Duration
	kind    kind
	fn      CheckFunc

	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)
}

func (c *check) failure() (string, bool) {
	p := c.lastErr.Load()
	if p == nil || *p == nil {
		return "", false
	}
	return (*p).Error(), true
}

// Service runs the registered checks and serves the probe endpoints.
type Service struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New creates a Service with no checks. It reports not-ready until
// SetReady(true).
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a check that gates the /livez probe.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(&check{name: name, timeout: timeout, kind: liveness, fn: fn})
}

// AddReadinessCheck registers a check that gates the /readyz probe.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(&check{name: name, timeout: timeout, kind: readiness, fn: fn})
}

func (s *Service) add(c *check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, c)
}

// Start runs every registered check once, then re-runs all of them at the
// given interval until ctx is cancelled or Stop is called. Register all
// checks before calling Start.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	checks := make([]*check, len(s.checks))
	copy(checks, s.checks)
	s.mu.Unlock()

	runAll := func() {
		for _, c := range checks {
			c.run(ctx)
		}
	}
	runAll()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runAll()
			}
		}
	}()
}

// Stop cancels the background runner. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate. It is set true after startup
// wiring completes and false at the start of graceful shutdown, so load
// balancers stop routing before the listener closes.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness check
// passed on its last run.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	return len(s.failures(readiness)) == 0
}

func (s *Service) failures(k kind) map[string]string {
	s.mu.RLock()
	checks := s.checks
	s.mu.RUnlock()

	out := make(map[string]string)
	for _, c := range checks {
		if c.kind != k {
			continue
		}
		if msg, failed := c.failure(); failed {
			out[c.name] = msg
		}
	}
	return out
}

/// LiveEndpoint serves the /livez probe: 200 while every liveness check
// passes, 503 with the failing checks otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, s.failures(liveness))
}

// ReadyEndpoint serves the /readyz probe. The manual gate counts as a
// failing check while closed.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := s.failures(readiness)
	if !s.ready.Load() {
		failures["_gate"] = "service not marked ready"
	}
	writeProbe(w, failures)
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = probeResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// GoroutineCountCheck fails when the process exceeds maxCount goroutines,
// which on this server usually means a handler or refresh loop is leaking.
func GoroutineCountCheck(maxCount int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > maxCount {
			return errors.Errorf("too many goroutines: %d > %d", n, maxCount)
		}
		return nil
	}
}
