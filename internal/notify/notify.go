// Package notify provides per-session transient notifications and a separate
// screen-reader announcer. A session shows at most one notification at a
// time: a new Notify replaces the current one immediately and arms a fresh
// expiry. A notification is absent, then visible, then removed on expiry,
// with replacement as the only shortcut.
package notify

import (
	"context"
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

const (
	// DefaultTTL is how long a notification stays visible.
	DefaultTTL = 4 * time.Second
	// DefaultAnnounceTTL is how long a live-region announcement persists
	// before it is cleared.
	DefaultAnnounceTTL = 2 * time.Second

	cleanupInterval = 30 * time.Second
)

// Notice is one visible notification.
type Notice struct {
	Message string
	Kind    Kind
}

type entry struct {
	notice    Notice
	expiresAt time.Time

	announcement string
	announceAt   time.Time
}

// Center tracks the current notification and announcement per session.
type Center struct {
	ttl         time.Duration
	announceTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*entry

	// now is swappable in tests.
	now func() time.Time
}

// NewCenter creates a Center with the default TTLs and starts a background
// sweep that drops expired sessions until ctx is cancelled.
func NewCenter(ctx context.Context) *Center {
	c := &Center{
		ttl:         DefaultTTL,
		announceTTL: DefaultAnnounceTTL,
		sessions:    make(map[string]*entry),
		now:         time.Now,
	}
	go c.sweep(ctx)
	return c
}

// Notify replaces the session's visible notification, if any, with a new one.
func (c *Center) Notify(sessionID, message string, kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.session(sessionID)
	e.notice = Notice{Message: message, Kind: kind}
	e.expiresAt = c.now().Add(c.ttl)
}

// Current returns the session's visible notification, or nil once it has
// expired or was never set. Reading does not consume the notification.
func (c *Center) Current(sessionID string) *Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.sessions[sessionID]
	if !ok || c.now().After(e.expiresAt) {
		return nil
	}
	n := e.notice
	return &n
}

// Announce sets the session's live-region message for assistive technology,
// independent of the visible notification.
func (c *Center) Announce(sessionID, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.session(sessionID)
	e.announcement = message
	e.announceAt = c.now().Add(c.announceTTL)
}

// Announcement returns the session's pending live-region message, or "" once
// it has been cleared.
func (c *Center) Announcement(sessionID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.sessions[sessionID]
	if !ok || c.now().After(e.announceAt) {
		return ""
	}
	return e.announcement
}

// session returns the entry for sessionID, creating it when absent.
// Callers must hold c.mu.
func (c *Center) session(sessionID string) *entry {
	e, ok := c.sessions[sessionID]
	if !ok {
		e = &entry{}
		c.sessions[sessionID] = e
	}
	return e
}

// sweep drops fully-expired sessions so the map does not grow unbounded.
func (c *Center) sweep(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for id, e := range c.sessions {
				if now.After(e.expiresAt) && now.After(e.announceAt) {
					delete(c.sessions, id)
				}
			}
			c.mu.Unlock()
		}
	}
}
