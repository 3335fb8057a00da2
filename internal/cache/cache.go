// Package cache deduplicates pipeline work by request fingerprint. Concurrent
// requests for the same fingerprint collapse into a single computation, and
// completed results are retained for a configurable window.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/enviducate/enviducate/internal/model"
)

// Fingerprint returns the SHA-256 hex of the normalized query text plus the
// dataset identity (empty for query-only requests). The normalization
// (trim + lowercase) makes trivially-different requests share a fingerprint.
func Fingerprint(query, datasetID string) string {
	normalized := strings.ToLower(strings.TrimSpace(query)) + "|" + datasetID
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

type entry struct {
	result    *model.EnvironmentalResult
	createdAt time.Time
}

// Stats contains cache performance counters.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// ResultCache is a concurrent-safe in-memory result cache keyed by
// fingerprint. Mutual exclusion for computation is scoped per fingerprint via
// singleflight, not the whole cache, so distinct requests never serialize on
// each other. A ttl of zero means entries never expire within the process
// lifetime.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a ResultCache with the given retention window.
func New(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[string]*entry),
		ttl:     ttl,
	}
}

// Get returns the cached result for a fingerprint, or nil on miss or
// expiration.
func (c *ResultCache) Get(fingerprint string) *model.EnvironmentalResult {
	c.mu.RLock()
	e, ok := c.entries[fingerprint]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil
	}
	if c.ttl > 0 && time.Since(e.createdAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, fingerprint)
		c.mu.Unlock()
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	return e.result
}

// peek returns the live entry for a fingerprint without touching the hit and
// miss counters. Expired entries read as nil but are left for Get to evict.
func (c *ResultCache) peek(fingerprint string) *model.EnvironmentalResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		return nil
	}
	if c.ttl > 0 && time.Since(e.createdAt) > c.ttl {
		return nil
	}
	return e.result
}

// GetOrCompute returns the cached result for a fingerprint, computing and
// storing it on miss. Concurrent calls with the same fingerprint trigger
// exactly one invocation of compute; the others wait and share its outcome.
// An entry becomes visible only once fully assembled — a failed computation
// stores nothing.
func (c *ResultCache) GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (*model.EnvironmentalResult, error)) (*model.EnvironmentalResult, error) {
	if result := c.Get(fingerprint); result != nil {
		return result, nil
	}

	v, err, _ := c.group.Do(fingerprint, func() (any, error) {
		// Re-check under the flight: a racing caller may have stored
		// the entry between our miss and the flight starting. The peek
		// skips the counters so one logical request is one miss.
		if result := c.peek(fingerprint); result != nil {
			return result, nil
		}
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[fingerprint] = &entry{result: result, createdAt: time.Now()}
		c.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.EnvironmentalResult), nil
}

// Invalidate removes a fingerprint's entry.
func (c *ResultCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	delete(c.entries, fingerprint)
	c.mu.Unlock()
}

// Stats returns cache performance counters.
func (c *ResultCache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	rate := 0.0
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Entries: entries, Hits: hits, Misses: misses, HitRate: rate}
}
