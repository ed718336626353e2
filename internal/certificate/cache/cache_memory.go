package cache

import (
	"context"
	"sync"
	"time"

	"marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/certificate/models"
)

type entry struct {
	verification models.Verification
	expiresAt    time.Time
}

// MemoryCache is a process-local TTL cache. Expired entries are dropped on
// read; there is no background sweeper.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// WithMetrics records hits, misses and invalidations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *MemoryCache) {
		c.metrics = m
	}
}

func NewMemoryCache(ttl time.Duration, opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Find(_ context.Context, canonical string) (*models.Verification, error) {
	start := time.Now()
	c.mu.RLock()
	e, ok := c.entries[canonical]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		if ok {
			c.mu.Lock()
			if cur, still := c.entries[canonical]; still && !c.now().Before(cur.expiresAt) {
				delete(c.entries, canonical)
			}
			c.mu.Unlock()
		}
		c.metrics.RecordCacheMiss(time.Since(start).Seconds())
		return nil, ErrMiss
	}
	c.metrics.RecordCacheHit(time.Since(start).Seconds())
	v := e.verification
	return &v, nil
}

func (c *MemoryCache) Save(_ context.Context, v *models.Verification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[v.CanonicalNumber] = entry{verification: *v, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, canonical string) error {
	c.mu.Lock()
	delete(c.entries, canonical)
	c.mu.Unlock()
	c.metrics.IncrementInvalidations()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// read.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
