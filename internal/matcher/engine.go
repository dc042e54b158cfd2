package matcher

import (
	"context"
	"fmt"

	"github.com/couchcryptid/climate-match-service/internal/domain"
)

// Evaluator produces the map layers for a filter state and viewport.
type Evaluator interface {
	Evaluate(ctx context.Context, r domain.Ranges, v domain.Viewport) (domain.Layers, error)
}

// Engine scores the interpolated grid and the city catalogue against a
// filter state. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	interpolator *domain.Interpolator
	grid         *domain.Grid
	cities       []domain.CityObservation
	maxCells     int
}

// NewEngine interpolates the global lattice once and returns an Engine over it.
// maxCells bounds the number of region cells a single viewport may produce;
// zero disables the limit.
func NewEngine(ip *domain.Interpolator, latStep, lonStep float64, maxCells int) (*Engine, error) {
	grid, err := ip.BuildGlobalGrid(latStep, lonStep)
	if err != nil {
		return nil, fmt.Errorf("build global grid: %w", err)
	}
	return &Engine{
		interpolator: ip,
		grid:         grid,
		cities:       ip.Cities(),
		maxCells:     maxCells,
	}, nil
}

// Grid returns the interpolated lattice. Callers must not modify it.
func (e *Engine) Grid() *domain.Grid { return e.grid }

// Cities returns the catalogue the grid was interpolated from.
func (e *Engine) Cities() []domain.CityObservation { return e.cities }

// MaxCells is the region cell limit per viewport.
func (e *Engine) MaxCells() int { return e.maxCells }

// Evaluate scores every grid point, aggregates the visible regions and
// scores every city. The returned layers carry no generation.
func (e *Engine) Evaluate(_ context.Context, r domain.Ranges, v domain.Viewport) (domain.Layers, error) {
	if err := r.Validate(); err != nil {
		return domain.Layers{}, fmt.Errorf("evaluate ranges: %w", err)
	}

	scores := domain.ScoreGrid(e.grid, r)
	regions, err := domain.Aggregate(e.grid, scores, v, e.maxCells)
	if err != nil {
		return domain.Layers{}, fmt.Errorf("aggregate regions: %w", err)
	}

	return domain.Layers{
		Ranges:     r,
		Viewport:   v,
		CellSize:   domain.GridSizeForZoom(v.Zoom),
		Regions:    regions,
		Cities:     domain.MatchCities(e.cities, r),
		ComputedAt: domain.Now(),
	}, nil
}

// ScoreAt interpolates a single coordinate and scores it against r.
func (e *Engine) ScoreAt(c domain.Coordinate, r domain.Ranges) (domain.ScoredPoint, error) {
	if err := r.Validate(); err != nil {
		return domain.ScoredPoint{}, err
	}
	gp, err := e.interpolator.Interpolate(c)
	if err != nil {
		return domain.ScoredPoint{}, fmt.Errorf("interpolate %v: %w", c, err)
	}
	return domain.ScoredPoint{GridPoint: gp, Score: domain.Score(gp.Metrics, r)}, nil
}
