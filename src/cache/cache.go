// Package cache is a bounded, TTL-limited store of translation results with
// hit-aware eviction.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	DefaultTTL      = 30 * time.Minute
	DefaultCapacity = 100
)

// Key identifies a normalized translation request.
type Key string

// NewKey hashes the request fields into a compact map key.
func NewKey(provider, text, source, target string) Key {
	h := sha256.New()
	for i, part := range []string{provider, text, source, target} {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}

type entry struct {
	value     string
	createdAt time.Time
	hits      uint
}

// Options overrides the defaults; zero fields keep them.
type Options struct {
	TTL      time.Duration
	Capacity int
	Now      func() time.Time
}

// Cache is safe for concurrent use; every operation holds one lock.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// New returns an empty cache.
func New(opts Options) *Cache {
	c := &Cache{
		entries:  make(map[Key]*entry),
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	if opts.TTL > 0 {
		c.ttl = opts.TTL
	}
	if opts.Capacity > 0 {
		c.capacity = opts.Capacity
	}
	if opts.Now != nil {
		c.now = opts.Now
	}
	return c
}

// Lookup returns a live entry and counts the hit. Expired entries are removed.
func (c *Cache) Lookup(key Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		return "", false
	}
	e.hits++
	return e.value, true
}

// Insert stores value, first evicting one entry if the cache is full.
func (c *Cache) Insert(key Key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.capacity {
		c.evictOne()
	}
	c.entries[key] = &entry{value: value, createdAt: c.now()}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOne removes the entry with the fewest hits, oldest first on ties.
func (c *Cache) evictOne() {
	var (
		victim Key
		best   *entry
	)
	for k, e := range c.entries {
		if best == nil || e.hits < best.hits || (e.hits == best.hits && e.createdAt.Before(best.createdAt)) {
			victim, best = k, e
		}
	}
	if best != nil {
		delete(c.entries, victim)
	}
}
