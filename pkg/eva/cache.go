package eva

import (
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedEvaluator memoises fitness by a caller-supplied genome key. It is
// safe for concurrent use.
type CachedEvaluator[G any] struct {
	inner  FitnessEvaluator[G]
	key    func(G) string
	cache  *cache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedEvaluator wraps inner. Entries expire after ttl; a ttl of zero or
// less keeps them for the lifetime of the evaluator.
func NewCachedEvaluator[G any](inner FitnessEvaluator[G], key func(G) string, ttl time.Duration) *CachedEvaluator[G] {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &CachedEvaluator[G]{
		inner: inner,
		key:   key,
		cache: cache.New(expiration, cleanup),
	}
}

func (c *CachedEvaluator[G]) Evaluate(genome G) Fitness {
	k := c.key(genome)
	if v, ok := c.cache.Get(k); ok {
		c.hits.Add(1)
		return v.(Fitness)
	}
	c.misses.Add(1)
	f := c.inner.Evaluate(genome)
	c.cache.SetDefault(k, f)
	return f
}

// Hits returns how many evaluations were served from the cache.
func (c *CachedEvaluator[G]) Hits() uint64 {
	return c.hits.Load()
}

// Misses returns how many evaluations reached the wrapped evaluator.
func (c *CachedEvaluator[G]) Misses() uint64 {
	return c.misses.Load()
}

// Len returns the number of cached entries.
func (c *CachedEvaluator[G]) Len() int {
	return c.cache.ItemCount()
}
