// Package cache provides a generic in-memory cache whose entries expire
// after a fixed TTL. It backs the profile lookup done on every
// authenticated request.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// TTLCache is safe for concurrent use. Expired entries are never returned;
// a sweeper goroutine frees their memory.
//
//	profiles := cache.New[string, *models.Profile](5*time.Minute, time.Minute)
//	defer profiles.Close()
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// New returns a cache whose entries live for ttl. A positive sweepEvery
// starts the sweeper; otherwise expired entries stay in memory until they
// are overwritten or deleted.
func New[K comparable, V any](ttl, sweepEvery time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go c.sweepLoop(sweepEvery)
	}
	return c
}

// Get returns the live value stored under key.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for one TTL, replacing any previous entry.
func (c *TTLCache[K, V]) Set(key K, value V) {
	expiresAt := c.now().Add(c.ttl)

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Delete drops key. Deleting a missing key is a no-op.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet swept.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweeper. The cache stays usable. Safe to call twice.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *TTLCache[K, V]) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep removes expired entries and returns how many it removed.
func (c *TTLCache[K, V]) sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
