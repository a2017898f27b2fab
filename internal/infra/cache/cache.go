// Package cache provides a small in-memory TTL cache. It holds diagnosis
// leads for the customer portal, which are immutable after creation, so
// entries only ever age out.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// TTLCache is a thread-safe in-memory cache with a single expiry policy.
type TTLCache[T any] struct {
	mu        sync.RWMutex
	items     map[string]entry[T]
	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache whose entries live for ttl. A background sweeper
// reclaims expired entries so a long-running process does not accumulate
// dead leads; Close stops it.
func New[T any](ttl time.Duration) *TTLCache[T] {
	c := &TTLCache[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Close stops the background sweeper. Safe to call more than once.
func (c *TTLCache[T]) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Get retrieves a value. Returns false when absent or expired; expired
// entries are left for the sweeper.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value, restarting its TTL.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a value.
func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len reports the number of stored entries, expired ones included.
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// sweep periodically drops expired entries. Sweeping at half the TTL keeps
// the worst-case lifetime of a dead entry at 1.5x the TTL.
func (c *TTLCache[T]) sweep() {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, v := range c.items {
				if now.After(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
