package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"rently/internal/domain/entity"
	"rently/internal/infrastructure/kvstore"
	"rently/pkg/logger"
)

const (
	sessionKey = "rently:session"

	// Dependent keys invalidated together with the session so a stale
	// identity never leaks into a new sign-in on the same device.
	profileKey = "rently:profile"
	roleKey    = "rently:role"
)

const DefaultTTL = 10 * time.Minute

// SessionCache is a TTL-bound cache of the authenticated identity and a
// lightweight profile summary, shared across independently-mounted views.
// It is purely an optimization: every consumer must be able to fall back to
// the identity/profile provider when Read reports absent.
type SessionCache struct {
	store kvstore.Store
	ttl   time.Duration
	clock func() time.Time

	mu          sync.Mutex
	subscribers map[int]func(entity.SessionUpdate)
	nextSubID   int
}

func NewSessionCache(store kvstore.Store, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionCache{
		store:       store,
		ttl:         ttl,
		clock:       time.Now,
		subscribers: make(map[int]func(entity.SessionUpdate)),
	}
}

// SetClock overrides the time source. Test hook.
func (c *SessionCache) SetClock(clock func() time.Time) {
	c.clock = clock
}

// Read returns the cached entry if it is present, well-formed and fresh.
// A corrupt or expired entry degrades to absent, never to an error.
func (c *SessionCache) Read(ctx context.Context) (*entity.SessionEntry, bool) {
	raw, ok := c.store.Get(ctx, sessionKey)
	if !ok {
		return nil, false
	}

	var entry entity.SessionEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logger.Warn("session cache: malformed entry, treating as absent: %v", err)
		return nil, false
	}

	if c.clock().Sub(entry.Timestamp) >= c.ttl {
		return nil, false
	}

	return &entry, true
}

// Write persists the entry and synchronously notifies subscribers with the
// role/display-name projection so concurrently-mounted views converge
// without re-fetching. Writes are last-write-wins.
func (c *SessionCache) Write(ctx context.Context, entry *entity.SessionEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = c.clock()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, sessionKey, raw); err != nil {
		return err
	}

	c.notify(entity.SessionUpdate{Role: entry.Role, DisplayName: entry.DisplayName})
	return nil
}

// Invalidate clears the session entry and its dependent caches. Called on
// sign-out and on explicit role change.
func (c *SessionCache) Invalidate(ctx context.Context) {
	for _, key := range []string{sessionKey, profileKey, roleKey} {
		if err := c.store.Delete(ctx, key); err != nil {
			logger.Warn("session cache: failed to clear %s: %v", key, err)
		}
	}
	c.notify(entity.SessionUpdate{})
}

// Subscribe registers a listener for session updates. The returned function
// removes the listener; callers must invoke it on teardown.
func (c *SessionCache) Subscribe(fn func(entity.SessionUpdate)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *SessionCache) notify(update entity.SessionUpdate) {
	c.mu.Lock()
	listeners := make([]func(entity.SessionUpdate), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(update)
	}
}
