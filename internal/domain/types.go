package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
)

// ErrInvalidInput marks a violated precondition: an empty city list, a
// non-positive lattice step, an inverted filter range, or an oversized viewport.
var ErrInvalidInput = errors.New("invalid input")

// Lattice bounds shared by the global grid and region aggregation.
const (
	MinLat = -85.0
	MaxLat = 85.0
	MinLon = -180.0
	MaxLon = 180.0
)

// Coordinate is a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Dimension identifies one of the five weather metrics a filter constrains.
type Dimension int

const (
	HighTemp Dimension = iota
	LowTemp
	OverallTemp
	Sunlight
	Cloudy

	NumDimensions = 5
)

var dimensionNames = [NumDimensions]string{"high_temp", "low_temp", "overall_temp", "sunlight", "cloudy"}

// Dimensions lists every dimension in canonical order.
func Dimensions() [NumDimensions]Dimension {
	return [NumDimensions]Dimension{HighTemp, LowTemp, OverallTemp, Sunlight, Cloudy}
}

func (d Dimension) String() string {
	if d < 0 || int(d) >= NumDimensions {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// ParseDimension maps a dimension name ("high_temp", "sunlight", ...) to its Dimension.
func ParseDimension(name string) (Dimension, error) {
	for i, n := range dimensionNames {
		if n == name {
			return Dimension(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dimension %q: %w", name, ErrInvalidInput)
}

// Metrics holds the five weather characteristics of a place.
type Metrics struct {
	HighTemp   float64 `json:"high_temp" yaml:"high_temp"`     // °F
	LowTemp    float64 `json:"low_temp" yaml:"low_temp"`       // °F
	AvgTemp    float64 `json:"avg_temp" yaml:"avg_temp"`       // °F
	Sunlight   float64 `json:"sunlight" yaml:"sunlight"`       // hours/day
	CloudyDays float64 `json:"cloudy_days" yaml:"cloudy_days"` // days/month
}

// Value returns the metric constrained by d.
func (m Metrics) Value(d Dimension) float64 {
	switch d {
	case HighTemp:
		return m.HighTemp
	case LowTemp:
		return m.LowTemp
	case OverallTemp:
		return m.AvgTemp
	case Sunlight:
		return m.Sunlight
	case Cloudy:
		return m.CloudyDays
	default:
		return math.NaN()
	}
}

// CityObservation is a hand-curated climate record for a named city.
type CityObservation struct {
	Name       string `json:"name" yaml:"name"`
	Coordinate `yaml:",inline"`
	Metrics    `yaml:",inline"`
}

// GridPoint is a synthetic sample on the global lattice, derived by interpolation.
type GridPoint struct {
	Coordinate
	Metrics
	NearestCity    string  `json:"nearest_city"`
	DistanceToCity float64 `json:"distance_to_city_km"`
}

// FilterRange is an inclusive [Min, Max] window over one dimension.
type FilterRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Width is Max − Min.
func (r FilterRange) Width() float64 { return r.Max - r.Min }

// Midpoint is the centre of the window.
func (r FilterRange) Midpoint() float64 { return (r.Min + r.Max) / 2 }

// Contains reports whether v lies inside the closed window.
func (r FilterRange) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Validate rejects non-finite bounds and inverted windows.
func (r FilterRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("range bounds must be finite: %w", ErrInvalidInput)
	}
	if r.Max < r.Min {
		return fmt.Errorf("range max %g is below min %g: %w", r.Max, r.Min, ErrInvalidInput)
	}
	return nil
}

// Ranges holds one FilterRange per dimension, indexed by Dimension.
type Ranges [NumDimensions]FilterRange

// DefaultRanges returns the unfiltered bounds the map starts with and Reset restores.
func DefaultRanges() Ranges {
	return Ranges{
		HighTemp:    {Min: 14, Max: 122},
		LowTemp:     {Min: -4, Max: 104},
		OverallTemp: {Min: 5, Max: 113},
		Sunlight:    {Min: 0, Max: 12},
		Cloudy:      {Min: 0, Max: 31},
	}
}

// Validate checks every dimension's range.
func (r Ranges) Validate() error {
	for _, d := range Dimensions() {
		if err := r[d].Validate(); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}
	return nil
}

// ByName keys each range by its dimension name.
func (r Ranges) ByName() map[string]FilterRange {
	out := make(map[string]FilterRange, NumDimensions)
	for _, d := range Dimensions() {
		out[d.String()] = r[d]
	}
	return out
}

// MarshalJSON encodes the ranges as an object keyed by dimension name.
func (r Ranges) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ByName())
}

// Bounds is a lat/lon rectangle.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// maxViewportDegrees bounds viewport edges; web maps report longitudes past ±180 when panned across the antimeridian.
const maxViewportDegrees = 720.0

// Viewport is the visible map area and its zoom level.
type Viewport struct {
	Bounds Bounds  `json:"bounds"`
	Zoom   float64 `json:"zoom"`
}

// DefaultViewport is the world view the map opens with.
func DefaultViewport() Viewport {
	return Viewport{
		Bounds: Bounds{South: MinLat, West: MinLon, North: MaxLat, East: MaxLon},
		Zoom:   2,
	}
}

// Validate rejects inverted or non-finite bounds and negative zoom.
func (v Viewport) Validate() error {
	b := v.Bounds
	for _, f := range []float64{b.South, b.West, b.North, b.East, v.Zoom} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("viewport values must be finite: %w", ErrInvalidInput)
		}
	}
	if math.Abs(b.South) > maxViewportDegrees || math.Abs(b.North) > maxViewportDegrees ||
		math.Abs(b.West) > maxViewportDegrees || math.Abs(b.East) > maxViewportDegrees {
		return fmt.Errorf("viewport bounds exceed ±%g degrees: %w", maxViewportDegrees, ErrInvalidInput)
	}
	if b.North < b.South || b.East < b.West {
		return fmt.Errorf("viewport bounds are inverted: %w", ErrInvalidInput)
	}
	if v.Zoom < 0 {
		return fmt.Errorf("viewport zoom %g is negative: %w", v.Zoom, ErrInvalidInput)
	}
	return nil
}

// ScoredPoint is a grid point annotated with its match score.
type ScoredPoint struct {
	GridPoint
	Score float64 `json:"score"`
}

// CityMatch is a catalogue city annotated with its match score.
type CityMatch struct {
	City        CityObservation `json:"city"`
	Score       float64         `json:"score"`
	Highlighted bool            `json:"highlighted"`
	Popup       string          `json:"popup"`
}

// Region is a displayable map cell filled from its nearest grid point.
type Region struct {
	Polygon     [][2]float64 `json:"polygon"` // closed ring of [lon, lat]
	Point       ScoredPoint  `json:"point"`
	Score       float64      `json:"score"`
	FillOpacity float64      `json:"fill_opacity"`
	Popup       string       `json:"popup"`
}

// Layers is everything the map draws for one filter state and viewport.
// A new value replaces the previous one wholesale.
type Layers struct {
	Generation uint64      `json:"generation"`
	Ranges     Ranges      `json:"ranges"`
	Viewport   Viewport    `json:"viewport"`
	CellSize   float64     `json:"cell_size"`
	Regions    []Region    `json:"regions"`
	Cities     []CityMatch `json:"cities"`
	ComputedAt time.Time   `json:"computed_at"`
}
