// Package regioncache memoises map layer evaluations keyed on the exact
// filter ranges and viewport.
package regioncache

import (
	"context"

	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/couchcryptid/climate-match-service/internal/matcher"
	"github.com/couchcryptid/climate-match-service/internal/observability"
)

type key struct {
	ranges   domain.Ranges
	viewport domain.Viewport
}

// CachedEvaluator wraps an Evaluator with an in-memory LRU cache.
// Cached layers are shared between callers and must not be modified.
type CachedEvaluator struct {
	inner   matcher.Evaluator
	cache   *lruCache[key, domain.Layers]
	metrics *observability.Metrics
}

var _ matcher.Evaluator = (*CachedEvaluator)(nil)

// New creates a cache decorator around an evaluator holding at most maxEntries results.
func New(inner matcher.Evaluator, maxEntries int, metrics *observability.Metrics) *CachedEvaluator {
	return &CachedEvaluator{
		inner:   inner,
		cache:   newLRUCache[key, domain.Layers](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedEvaluator) Evaluate(ctx context.Context, r domain.Ranges, v domain.Viewport) (domain.Layers, error) {
	k := key{ranges: r, viewport: v}
	if layers, ok := c.cache.get(k); ok {
		c.metrics.RegionCache.WithLabelValues("hit").Inc()
		return layers, nil
	}
	c.metrics.RegionCache.WithLabelValues("miss").Inc()

	layers, err := c.inner.Evaluate(ctx, r, v)
	if err != nil {
		return layers, err
	}
	c.cache.put(k, layers)
	return layers, nil
}

// Len reports the number of cached evaluations.
func (c *CachedEvaluator) Len() int {
	return c.cache.len()
}
