package cache

import (
	"sync"
	"time"
)

// entry holds a cached value with its expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is an in-memory cache whose entries expire a fixed time after they are
// set. It is safe for concurrent use.
type TTL[K comparable, V any] struct {
	mu         sync.RWMutex
	store      map[K]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a TTL cache holding at most maxEntries values (0 means no
// limit) for ttl each. A background goroutine evicts expired entries every
// ttl until Stop is called.
func New[K comparable, V any](maxEntries int, ttl time.Duration) *TTL[K, V] {
	c := &TTL[K, V]{
		store:      make(map[K]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. At capacity, expired entries are evicted
// first and then one arbitrary entry if still full.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && c.maxEntries > 0 && len(c.store) >= c.maxEntries {
		c.evictExpiredLocked()
		if len(c.store) >= c.maxEntries {
			// Map iteration order is random.
			for k := range c.store {
				delete(c.store, k)
				break
			}
		}
	}

	c.store[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop terminates the background cleanup goroutine.
func (c *TTL[K, V]) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *TTL[K, V]) expired(e entry[V]) bool {
	return c.ttl > 0 && !c.now().Before(e.expiresAt)
}

func (c *TTL[K, V]) evictExpiredLocked() {
	for k, e := range c.store {
		if c.expired(e) {
			delete(c.store, k)
		}
	}
}

func (c *TTL[K, V]) cleanupLoop() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.evictExpiredLocked()
			c.mu.Unlock()
		}
	}
}
