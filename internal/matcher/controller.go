package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/couchcryptid/climate-match-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Default quiet periods before a recompute runs.
const (
	DefaultFilterDebounce = 150 * time.Millisecond
	DefaultZoomDebounce   = 300 * time.Millisecond
)

const publishTimeout = 5 * time.Second

// SnapshotPublisher receives a summary of every successful recompute.
type SnapshotPublisher interface {
	Publish(ctx context.Context, s domain.Snapshot) error
}

// Controller owns the shared filter state, the viewport and the current
// map layers. Updates apply to the state immediately and schedule a
// debounced recompute; layers are replaced wholesale, never mutated.
type Controller struct {
	eval      Evaluator
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	maxCells  int

	filterDelay time.Duration
	zoomDelay   time.Duration

	mu       sync.Mutex
	ranges   domain.Ranges
	viewport domain.Viewport

	recomputeMu sync.Mutex
	generation  uint64
	layers      atomic.Pointer[domain.Layers]

	filterDebounce *Debouncer
	zoomDebounce   *Debouncer
	ready          atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher sends a snapshot after each successful recompute.
func WithPublisher(p SnapshotPublisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithClock replaces the wall clock used for debouncing and timing.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithDebounce sets the filter and zoom quiet periods.
func WithDebounce(filter, zoom time.Duration) Option {
	return func(c *Controller) {
		c.filterDelay = filter
		c.zoomDelay = zoom
	}
}

// WithMaxCells rejects viewports that would produce more than n region cells.
func WithMaxCells(n int) Option {
	return func(c *Controller) { c.maxCells = n }
}

// New creates a Controller with the default ranges and viewport and computes
// the initial layers before returning.
func New(ctx context.Context, eval Evaluator, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Controller, error) {
	c := &Controller{
		eval:        eval,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		filterDelay: DefaultFilterDebounce,
		zoomDelay:   DefaultZoomDebounce,
		ranges:      domain.DefaultRanges(),
		viewport:    domain.DefaultViewport(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.filterDebounce = NewDebouncer(c.clock, c.filterDelay, c.recomputeInBackground)
	c.zoomDebounce = NewDebouncer(c.clock, c.zoomDelay, c.recomputeInBackground)

	if err := c.Recompute(ctx); err != nil {
		return nil, fmt.Errorf("initial layers: %w", err)
	}
	return c, nil
}

// Ranges returns the current filter state.
func (c *Controller) Ranges() domain.Ranges {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ranges
}

// Viewport returns the current viewport.
func (c *Controller) Viewport() domain.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// SetRanges replaces every filter range.
func (c *Controller) SetRanges(r domain.Ranges) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.ranges = r
	c.mu.Unlock()

	c.schedule(c.filterDebounce, "filter")
	return nil
}

// SetRange replaces the range of a single dimension.
func (c *Controller) SetRange(d domain.Dimension, fr domain.FilterRange) error {
	if d < 0 || int(d) >= domain.NumDimensions {
		return fmt.Errorf("unknown dimension %d: %w", int(d), domain.ErrInvalidInput)
	}
	if err := fr.Validate(); err != nil {
		return fmt.Errorf("%s: %w", d, err)
	}
	c.mu.Lock()
	c.ranges[d] = fr
	c.mu.Unlock()

	c.schedule(c.filterDebounce, "filter")
	return nil
}

// Reset restores the default ranges.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.ranges = domain.DefaultRanges()
	c.mu.Unlock()

	c.schedule(c.filterDebounce, "filter")
}

// SetViewport records a new visible area and zoom.
func (c *Controller) SetViewport(v domain.Viewport) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if c.maxCells > 0 {
		if n := domain.CellCount(v); n > c.maxCells {
			return fmt.Errorf("viewport needs %d cells, limit is %d: %w", n, c.maxCells, domain.ErrInvalidInput)
		}
	}
	c.mu.Lock()
	c.viewport = v
	c.mu.Unlock()

	c.schedule(c.zoomDebounce, "viewport")
	return nil
}

func (c *Controller) schedule(d *Debouncer, trigger string) {
	if d.Trigger() {
		c.metrics.DebounceCoalesced.WithLabelValues(trigger).Inc()
	}
}

// Pending reports whether a debounced recompute is scheduled.
func (c *Controller) Pending() bool {
	return c.filterDebounce.Pending() || c.zoomDebounce.Pending()
}

// Flush runs any pending recompute immediately.
func (c *Controller) Flush(ctx context.Context) error {
	filter := c.filterDebounce.Cancel()
	zoom := c.zoomDebounce.Cancel()
	if !filter && !zoom {
		return nil
	}
	return c.Recompute(ctx)
}

// Layers returns the most recently computed layers.
func (c *Controller) Layers() domain.Layers {
	return *c.layers.Load()
}

// Recompute evaluates the current state and replaces the layers. Concurrent
// calls are serialised; each success advances the generation by one.
func (c *Controller) Recompute(ctx context.Context) error {
	c.recomputeMu.Lock()
	defer c.recomputeMu.Unlock()

	c.mu.Lock()
	r, v := c.ranges, c.viewport
	c.mu.Unlock()

	start := c.clock.Now()
	layers, err := c.eval.Evaluate(ctx, r, v)
	if err != nil {
		c.metrics.RecomputeErrors.Inc()
		return fmt.Errorf("recompute layers: %w", err)
	}

	c.generation++
	layers.Generation = c.generation
	c.layers.Store(&layers)
	c.ready.Store(true)

	c.metrics.Recomputes.Inc()
	c.metrics.RecomputeDuration.Observe(c.clock.Since(start).Seconds())
	c.metrics.MatchedRegions.Set(float64(len(layers.Regions)))
	c.metrics.MatchedCities.Set(float64(len(layers.Cities)))

	c.logger.Debug("layers recomputed",
		"generation", layers.Generation,
		"regions", len(layers.Regions),
		"cities", len(layers.Cities),
		"cell_size", layers.CellSize,
	)

	c.publish(ctx, layers)
	return nil
}

func (c *Controller) publish(ctx context.Context, layers domain.Layers) {
	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	snap := domain.Snapshot{
		ID:             uuid.NewString(),
		Generation:     layers.Generation,
		Ranges:         layers.Ranges,
		Viewport:       layers.Viewport,
		CellSize:       layers.CellSize,
		MatchedRegions: len(layers.Regions),
		Cities:         layers.Cities,
		ComputedAt:     layers.ComputedAt,
	}
	if err := c.publisher.Publish(ctx, snap); err != nil {
		c.logger.Warn("publish snapshot failed", "error", err, "generation", snap.Generation)
	}
}

func (c *Controller) recomputeInBackground() {
	if err := c.Recompute(context.Background()); err != nil {
		c.logger.Error("debounced recompute failed", "error", err)
	}
}

// CheckReadiness returns nil once layers have been computed.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("match layers have not been computed yet")
	}
	return nil
}

// Run blocks until ctx is cancelled, then drops any pending recompute.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("match controller started",
		"filter_debounce", c.filterDelay,
		"zoom_debounce", c.zoomDelay,
	)
	c.metrics.ControllerRunning.Set(1)
	defer c.metrics.ControllerRunning.Set(0)

	<-ctx.Done()
	c.filterDebounce.Cancel()
	c.zoomDebounce.Cancel()
	c.ready.Store(false)
	c.logger.Info("match controller stopping", "reason", ctx.Err())
	return nil
}
