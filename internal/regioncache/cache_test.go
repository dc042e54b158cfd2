package regioncache

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/couchcryptid/climate-match-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingEvaluator struct {
	calls int
	err   error
}

func (m *countingEvaluator) Evaluate(_ context.Context, r domain.Ranges, v domain.Viewport) (domain.Layers, error) {
	m.calls++
	if m.err != nil {
		return domain.Layers{}, m.err
	}
	return domain.Layers{Ranges: r, Viewport: v, CellSize: domain.GridSizeForZoom(v.Zoom)}, nil
}

// --- CachedEvaluator tests ---

func TestCachedEvaluator_CacheHit(t *testing.T) {
	inner := &countingEvaluator{}
	metrics := observability.NewMetricsForTesting()
	cached := New(inner, 10, metrics)

	l1, err := cached.Evaluate(context.Background(), domain.DefaultRanges(), domain.DefaultViewport())
	require.NoError(t, err)
	l2, err := cached.Evaluate(context.Background(), domain.DefaultRanges(), domain.DefaultViewport())
	require.NoError(t, err)

	assert.Equal(t, l1, l2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RegionCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RegionCache.WithLabelValues("miss")))
}

func TestCachedEvaluator_DifferentKeysMiss(t *testing.T) {
	inner := &countingEvaluator{}
	cached := New(inner, 10, observability.NewMetricsForTesting())

	narrow := domain.DefaultRanges()
	narrow[domain.Sunlight] = domain.FilterRange{Min: 4, Max: 8}
	zoomed := domain.DefaultViewport()
	zoomed.Zoom = 3

	_, _ = cached.Evaluate(context.Background(), domain.DefaultRanges(), domain.DefaultViewport())
	_, _ = cached.Evaluate(context.Background(), narrow, domain.DefaultViewport())
	_, _ = cached.Evaluate(context.Background(), domain.DefaultRanges(), zoomed)

	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 3, cached.Len())
}

func TestCachedEvaluator_ErrorsNotCached(t *testing.T) {
	inner := &countingEvaluator{err: errors.New("too many cells")}
	cached := New(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Evaluate(context.Background(), domain.DefaultRanges(), domain.DefaultViewport())
	require.Error(t, err)
	_, err = cached.Evaluate(context.Background(), domain.DefaultRanges(), domain.DefaultViewport())
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Len())
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[string, int](3)

	c.put("a", 1)
	c.put("b", 2)

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[string, int](2)

	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache[string, int](2)

	c.put("a", 1)
	c.put("b", 2)

	// Access "a" to promote it
	c.get("a")

	// Insert "c", which should evict "b" (LRU), not "a"
	c.put("c", 3)

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[string, int](2)

	c.put("a", 1)
	c.put("a", 2)

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.len())
}
