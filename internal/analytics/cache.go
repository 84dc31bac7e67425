package analytics

import (
	"strings"
	"sync"
	"time"

	"github.com/example/workspace-analytics/internal/calendar"
)

// queryCache keeps recent aggregate results so repeated dashboard refreshes
// with the same filter skip the database until the TTL lapses.
type queryCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]queryCacheEntry
}

type queryCacheEntry struct {
	value     any
	expiresAt time.Time
}

func newQueryCache(ttl time.Duration, maxEntries int, now func() time.Time) *queryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &queryCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]queryCacheEntry),
	}
}

func (c *queryCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *queryCache) Store(key string, value any) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = queryCacheEntry{value: value, expiresAt: expiry}
}

func (c *queryCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]queryCacheEntry)
	c.mu.Unlock()
}

func (c *queryCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *queryCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry.
func (c *queryCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

// cached returns a clone of the cached value for key, or computes, stores
// and returns it. Errors are never cached.
func cached[T any](c *queryCache, key string, clone func(T) T, compute func() (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return clone(typed), true, nil
		}
	}
	value, err := compute()
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.Store(key, clone(value))
	return value, false, nil
}

func buildCacheKey(operation string, filter Filter, extra ...string) string {
	builder := strings.Builder{}
	builder.WriteString(operation)
	for _, part := range []string{
		formatDate(filter.From),
		formatDate(filter.To),
		filter.Country,
		filter.City,
		filter.Building,
	} {
		builder.WriteString("|")
		builder.WriteString(part)
	}
	for _, part := range extra {
		builder.WriteString("|")
		builder.WriteString(part)
	}
	return builder.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(calendar.DateLayout)
}

func identity[T any](v T) T { return v }
