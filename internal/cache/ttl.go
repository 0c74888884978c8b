// Package cache provides bounded in-memory caches whose entries expire.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache defaults.
const (
	DefaultMaxEntries    = 10000
	DefaultSweepInterval = time.Minute
)

// Options configures a TTLCache.
type Options struct {
	// TTL is applied by Set and GetOrCompute when the call passes zero.
	TTL time.Duration

	// MaxEntries bounds the cache; least recently used entries are evicted first.
	MaxEntries int

	// SweepInterval is how often the janitor removes expired entries.
	// A negative value disables the janitor.
	SweepInterval time.Duration

	// Now overrides the clock. Used in tests.
	Now func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is an exact-key cache whose entries carry their own expiry.
// Expired entries are treated as absent on read and swept in the background.
// It is safe for concurrent use.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	entries *lru.Cache[K, entry[V]]
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewTTLCache creates a cache and starts its janitor.
// Call Close to stop the janitor.
func NewTTLCache[K comparable, V any](opts Options) *TTLCache[K, V] {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	entries, err := lru.New[K, entry[V]](opts.MaxEntries)
	if err != nil {
		// Only returned for a non-positive size, which is excluded above.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	c := &TTLCache[K, V]{
		entries: entries,
		ttl:     opts.TTL,
		now:     opts.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go c.janitor(opts.SweepInterval)
	} else {
		close(c.done)
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A zero ttl uses the cache default.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(key)
}

// GetOrCompute returns the cached value for key, or calls fn and caches its
// result. Concurrent calls for the same missing key share one call to fn.
// Errors are returned to every waiter and are not cached. fn runs detached
// from the caller's cancellation, so one caller giving up does not fail the
// others; each caller still stops waiting when its own ctx is done.
func (c *TTLCache[K, V]) GetOrCompute(ctx context.Context, key K, fn func(context.Context) (V, error), ttl time.Duration) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprint(key), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn(shared)
		if err != nil {
			return v, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *TTLCache[K, V]) Len() int {
	return c.entries.Len()
}

// Purge removes every entry.
func (c *TTLCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// Sweep removes expired entries and returns how many were removed.
func (c *TTLCache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.entries.Keys() {
		e, ok := c.entries.Peek(key)
		if ok && !now.Before(e.expiresAt) {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Close stops the janitor. The cache remains usable.
func (c *TTLCache[K, V]) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
	return nil
}

func (c *TTLCache[K, V]) janitor(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}
