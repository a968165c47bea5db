package readpath

import (
	"context"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is used when a Cache is constructed with a non-positive TTL.
const DefaultTTL = 10 * time.Minute

type cacheEntry struct {
	data       interface{}
	insertedAt time.Time
	ttl        time.Duration
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// Stats are the cache's observability counters.
type Stats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Sets          uint64  `json:"sets"`
	Invalidations uint64  `json:"invalidations"`
	Size          int     `json:"size"`
	HitRate       float64 `json:"hitRate"`
}

// Cache is the editor-side TTL cache. Reads and writes are guarded by one
// mutex; loader execution in GetOrSet happens outside the lock and is
// coalesced per key so concurrent misses trigger exactly one loader.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	defaultTTL time.Duration

	hits          uint64
	misses        uint64
	sets          uint64
	invalidations uint64

	loaders singleflight.Group
}

func NewCache(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value, or nil/false on miss or expiry.
// An expired entry is removed on the spot.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.data, true
}

// Set stores a value under the default TTL.
func (c *Cache) Set(key string, data interface{}) {
	c.SetTTL(key, data, c.defaultTTL)
}

// SetTTL stores a value with an explicit TTL.
func (c *Cache) SetTTL(key string, data interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{data: data, insertedAt: time.Now(), ttl: ttl}
	c.sets++
}

// Has reports TTL-aware presence without counting a hit or a miss.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		return false
	}
	return true
}

// Invalidate removes one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.invalidations++
	}
}

// InvalidatePattern removes every key matching the pattern and returns how
// many were removed.
func (c *Cache) InvalidatePattern(pattern *regexp.Regexp) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if pattern.MatchString(key) {
			delete(c.entries, key)
			removed++
		}
	}
	c.invalidations += uint64(removed)
	return removed
}

// InvalidateIntent maps an invalidation intent onto the key schema.
func (c *Cache) InvalidateIntent(intent Intent) int {
	if intent == InvalidateAll {
		c.mu.Lock()
		n := len(c.entries)
		c.entries = make(map[string]*cacheEntry)
		c.invalidations += uint64(n)
		c.mu.Unlock()
		return n
	}
	return c.InvalidatePattern(intent.Pattern())
}

// Clear drops everything without touching the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Cleanup sweeps expired entries and returns how many were removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// GetOrSet returns the cached value when present; otherwise it runs loader,
// stores the result under the default TTL and returns it. Concurrent callers
// for the same missing key share a single loader invocation.
func (c *Cache) GetOrSet(ctx context.Context, key string, loader func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.loaders.Do(key, func() (interface{}, error) {
		// Double-check: another caller may have loaded while we queued.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	return v, err
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		Sets:          c.sets,
		Invalidations: c.invalidations,
		Size:          len(c.entries),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
