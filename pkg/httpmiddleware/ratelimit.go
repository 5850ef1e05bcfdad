package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window limiter guarding the
// storefront endpoints.
type RateLimitConfig struct {
	// Max is the number of requests allowed per key and window.
	Max int
	// Window is the sliding window length.
	Window time.Duration
	// SessionCookie, when set, keys the limiter on that cookie's value so
	// shoppers behind a shared NAT do not throttle each other. Requests
	// without the cookie fall back to the client IP.
	SessionCookie string
	// KeyFunc overrides key extraction entirely. When nil, the
	// SessionCookie/client-IP scheme above applies.
	KeyFunc func(*http.Request) string
}

// visitor tracks request counts across the current and previous window for
// one limiter key.
type visitor struct {
	prev      float64
	prevStart time.Time
	curr      float64
	currStart time.Time
}

// limiter is the shared sliding window state.
type limiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
	}
}

// keyFor extracts the limiter key for a request: the configured override,
// the session cookie value, or the client IP, in that order.
func (l *limiter) keyFor(r *http.Request) string {
	if l.cfg.KeyFunc != nil {
		return l.cfg.KeyFunc(r)
	}
	if l.cfg.SessionCookie != "" {
		if c, err := r.Cookie(l.cfg.SessionCookie); err == nil && c.Value != "" {
			return "session:" + c.Value
		}
	}
	return "ip:" + clientIP(r)
}

// allow records the request under key and reports whether it fits the
// window. The effective count weighs the previous window by its remaining
// overlap with the sliding window, so a burst at a window boundary cannot
// double the budget.
func (l *limiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, allowed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{currStart: now}
		l.visitors[key] = v
	}

	if now.Sub(v.currStart) >= l.cfg.Window {
		v.prev, v.prevStart = v.curr, v.currStart
		v.curr = 0
		v.currStart = now.Truncate(l.cfg.Window)
		if now.Sub(v.prevStart) >= 2*l.cfg.Window {
			v.prev = 0
		}
	}

	overlap := 1.0 - now.Sub(v.currStart).Seconds()/l.cfg.Window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	effective := v.prev*overlap + v.curr
	resetAt = v.currStart.Add(l.cfg.Window)

	if effective >= float64(l.cfg.Max) {
		return 0, resetAt, false
	}

	v.curr++
	remaining = int(float64(l.cfg.Max) - effective - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// evict drops visitors whose windows have fully expired. A storefront sees
// many one-off crawler hits, so the map would otherwise grow unbounded.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if now.Sub(v.currStart) >= 2*l.cfg.Window {
			delete(l.visitors, key)
		}
	}
}

func (l *limiter) startEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(2 * l.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evict(now)
			}
		}
	}()
}

// RateLimit returns a middleware enforcing a per-key sliding window limit.
// Responses over the limit are 429 with a plain text body and a Retry-After
// header; every response carries X-RateLimit-Limit, X-RateLimit-Remaining,
// and X-RateLimit-Reset.
//
// This variant never evicts stale visitors. Use RateLimitWithCleanup on a
// long-running server.
func RateLimit(cfg RateLimitConfig) Middleware {
	return rateLimitMiddleware(newLimiter(cfg))
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// expired visitors every two windows until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	l.startEviction(ctx)
	return rateLimitMiddleware(l)
}

func rateLimitMiddleware(l *limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, allowed := l.allow(l.keyFor(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				retryAfter := time.Until(resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				// The storefront serves pages, not an API, so the body is
				// plain text rather than JSON.
				http.Error(w, "Too many requests, please retry shortly.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the originating client address: first X-Forwarded-For
// hop, then X-Real-IP, then the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
