// Package workflow resolves a (domain, intent) pair to an executable plan:
// in-process cache, then the plan store, then consensus synthesis.
package workflow

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

const (
	cacheNumCounters = 1e6
	cacheMaxCost     = 1e7
	cacheBufferItems = 64

	// DefaultCacheTTL bounds staleness between replicas sharing a plan
	// store. The store remains the source of truth.
	DefaultCacheTTL = 10 * time.Minute
)

// PlanCache is the read-mostly in-process plan cache. Cached plans are
// shared pointers and treated as immutable; replacement happens by a fresh
// Set after a store write, never by mutating a cached plan.
type PlanCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewPlanCache creates a plan cache. ttl <= 0 selects DefaultCacheTTL.
func NewPlanCache(ttl time.Duration) (*PlanCache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &PlanCache{cache: cache, ttl: ttl}, nil
}

// Get returns the cached plan for (domainID, intent).
func (c *PlanCache) Get(domainID, intent string) (*domain.Plan, bool) {
	value, found := c.cache.Get(cacheKey(domainID, intent))
	if !found {
		return nil, false
	}
	plan, ok := value.(*domain.Plan)
	return plan, ok
}

// Set caches the plan under every intent it satisfies.
func (c *PlanCache) Set(plan *domain.Plan) {
	cost := int64(len(plan.Steps) + 1)
	for _, intent := range plan.Intents {
		c.cache.SetWithTTL(cacheKey(plan.DomainID, intent), plan, cost, c.ttl)
	}
}

// Invalidate drops the cached entry for one (domainID, intent) key.
func (c *PlanCache) Invalidate(domainID, intent string) {
	c.cache.Del(cacheKey(domainID, intent))
}

// Wait flushes pending async cache writes. Tests need this; production
// paths tolerate the write buffer.
func (c *PlanCache) Wait() {
	c.cache.Wait()
}

// Close releases the cache's internal goroutines.
func (c *PlanCache) Close() {
	c.cache.Close()
}

func cacheKey(domainID, intent string) string {
	return domainID + "\x00" + intent
}
