package domain

import (
	"fmt"
	"math"
	"slices"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Distance.
	EarthRadiusKm = 6371.0

	// DefaultNeighbors is how many nearest cities contribute to a sample.
	DefaultNeighbors = 5

	// DefaultPower is the inverse-distance exponent: 1 for linear IDW, 2 for inverse-square.
	DefaultPower = 1.0

	// DefaultGridStep is the lattice spacing in degrees on both axes.
	DefaultGridStep = 5.0

	// minWeightDistance floors the distance used for weighting, in km.
	minWeightDistance = 0.1
)

// Distance returns the great-circle (Haversine) distance between a and b in kilometres.
func Distance(a, b Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Interpolator estimates weather metrics anywhere on Earth from a set of
// known city observations using inverse-distance weighting.
type Interpolator struct {
	cities    []CityObservation
	neighbors int
	power     float64
}

// InterpolatorOption customises an Interpolator.
type InterpolatorOption func(*Interpolator)

// WithNeighbors sets how many of the nearest cities contribute. Values below 1 are ignored.
func WithNeighbors(n int) InterpolatorOption {
	return func(i *Interpolator) {
		if n >= 1 {
			i.neighbors = n
		}
	}
}

// WithPower sets the inverse-distance exponent. Non-positive values are ignored.
func WithPower(p float64) InterpolatorOption {
	return func(i *Interpolator) {
		if p > 0 {
			i.power = p
		}
	}
}

// NewInterpolator creates an Interpolator over cities. At least one city is required.
func NewInterpolator(cities []CityObservation, opts ...InterpolatorOption) (*Interpolator, error) {
	if len(cities) == 0 {
		return nil, fmt.Errorf("interpolator needs at least one city: %w", ErrInvalidInput)
	}
	i := &Interpolator{
		cities:    slices.Clone(cities),
		neighbors: DefaultNeighbors,
		power:     DefaultPower,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Cities returns the observations the interpolator draws from.
func (i *Interpolator) Cities() []CityObservation {
	return slices.Clone(i.cities)
}

type weightedCity struct {
	city     *CityObservation
	distance float64
	weight   float64
}

// Interpolate estimates the metrics at p from its nearest cities.
func (i *Interpolator) Interpolate(p Coordinate) (GridPoint, error) {
	if len(i.cities) == 0 {
		return GridPoint{}, fmt.Errorf("interpolate %v: no cities: %w", p, ErrInvalidInput)
	}

	weighted := make([]weightedCity, len(i.cities))
	for idx := range i.cities {
		d := Distance(p, i.cities[idx].Coordinate)
		weighted[idx] = weightedCity{
			city:     &i.cities[idx],
			distance: d,
			weight:   1 / math.Pow(math.Max(d, minWeightDistance), i.power),
		}
	}
	slices.SortStableFunc(weighted, func(a, b weightedCity) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		default:
			return 0
		}
	})

	closest := weighted[:min(i.neighbors, len(weighted))]
	var sum Metrics
	var total float64
	for _, wc := range closest {
		m := wc.city.Metrics
		sum.HighTemp += m.HighTemp * wc.weight
		sum.LowTemp += m.LowTemp * wc.weight
		sum.AvgTemp += m.AvgTemp * wc.weight
		sum.Sunlight += m.Sunlight * wc.weight
		sum.CloudyDays += m.CloudyDays * wc.weight
		total += wc.weight
	}

	return GridPoint{
		Coordinate: p,
		Metrics: Metrics{
			HighTemp:   math.Round(sum.HighTemp / total),
			LowTemp:    math.Round(sum.LowTemp / total),
			AvgTemp:    math.Round(sum.AvgTemp / total),
			Sunlight:   math.Round(sum.Sunlight/total*10) / 10,
			CloudyDays: math.Round(sum.CloudyDays / total),
		},
		NearestCity:    weighted[0].city.Name,
		DistanceToCity: weighted[0].distance,
	}, nil
}

// Grid is the fully materialised global lattice of interpolated samples,
// ordered by latitude ascending, then longitude ascending.
type Grid struct {
	LatStep float64     `json:"lat_step"`
	LonStep float64     `json:"lon_step"`
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Points  []GridPoint `json:"points"`
}

// BuildGlobalGrid interpolates a sample at every node of the closed lattice
// spanning latitudes MinLat..MaxLat and longitudes MinLon..MaxLon.
func (i *Interpolator) BuildGlobalGrid(latStep, lonStep float64) (*Grid, error) {
	if !(latStep > 0) || !(lonStep > 0) {
		return nil, fmt.Errorf("grid steps must be positive (lat %g, lon %g): %w", latStep, lonStep, ErrInvalidInput)
	}

	rows := latticeCount(MinLat, MaxLat, latStep)
	cols := latticeCount(MinLon, MaxLon, lonStep)
	g := &Grid{
		LatStep: latStep,
		LonStep: lonStep,
		Rows:    rows,
		Cols:    cols,
		Points:  make([]GridPoint, 0, rows*cols),
	}

	for r := 0; r < rows; r++ {
		lat := MinLat + float64(r)*latStep
		for c := 0; c < cols; c++ {
			gp, err := i.Interpolate(Coordinate{Lat: lat, Lon: MinLon + float64(c)*lonStep})
			if err != nil {
				return nil, err
			}
			g.Points = append(g.Points, gp)
		}
	}
	return g, nil
}

// latticeCount is the number of nodes from lo to hi inclusive at the given step.
func latticeCount(lo, hi, step float64) int {
	// The epsilon keeps exact divisions such as 170/2.5 from losing a node to rounding.
	return int(math.Floor((hi-lo)/step+1e-9)) + 1
}

// NearestIndex returns the index of the lattice node closest to c in plain
// lat/lon degrees. Coordinates beyond the lattice clamp to its edge.
func (g *Grid) NearestIndex(c Coordinate) int {
	r := clampIndex(int(math.Round((c.Lat-MinLat)/g.LatStep)), g.Rows)
	col := clampIndex(int(math.Round((c.Lon-MinLon)/g.LonStep)), g.Cols)
	return r*g.Cols + col
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
