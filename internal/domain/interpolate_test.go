package domain

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	newYork := Coordinate{Lat: 40.7128, Lon: -74.0060}
	london := Coordinate{Lat: 51.5074, Lon: -0.1278}

	t.Run("same point is zero", func(t *testing.T) {
		assert.Zero(t, Distance(newYork, newYork))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, Distance(newYork, london), Distance(london, newYork))
	})

	t.Run("new york to london", func(t *testing.T) {
		assert.InDelta(t, 5570, Distance(newYork, london), 15)
	})

	t.Run("quarter meridian", func(t *testing.T) {
		d := Distance(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 90, Lon: 0})
		assert.InDelta(t, EarthRadiusKm*math.Pi/2, d, 1e-6)
	})
}

func TestNewInterpolator_EmptyCities(t *testing.T) {
	_, err := NewInterpolator(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestInterpolate_AtCity(t *testing.T) {
	ip, err := NewInterpolator(DefaultCities())
	require.NoError(t, err)

	gp, err := ip.Interpolate(Coordinate{Lat: 40.7128, Lon: -74.0060})
	require.NoError(t, err)

	assert.Equal(t, "New York", gp.NearestCity)
	assert.Zero(t, gp.DistanceToCity)
	assert.Equal(t, Metrics{HighTemp: 85, LowTemp: 65, AvgTemp: 75, Sunlight: 7, CloudyDays: 10}, gp.Metrics)
}

func TestInterpolate_SingleCity(t *testing.T) {
	only := city("Tokyo", 35.6762, 139.6503, 80, 60, 70, 6.5, 11)
	ip, err := NewInterpolator([]CityObservation{only})
	require.NoError(t, err)

	gp, err := ip.Interpolate(Coordinate{Lat: -60, Lon: -20})
	require.NoError(t, err)

	assert.Equal(t, only.Metrics, gp.Metrics)
	assert.Equal(t, "Tokyo", gp.NearestCity)
	assert.InDelta(t, Distance(gp.Coordinate, only.Coordinate), gp.DistanceToCity, 1e-9)
}

func TestInterpolate_Power(t *testing.T) {
	cities := []CityObservation{
		city("A", 0, 0, 0, 0, 0, 0, 0),
		city("B", 0, 10, 100, 100, 100, 10, 30),
	}
	target := Coordinate{Lat: 0, Lon: 2}

	linear, err := NewInterpolator(cities)
	require.NoError(t, err)
	gp, err := linear.Interpolate(target)
	require.NoError(t, err)
	assert.Equal(t, 20.0, gp.HighTemp)
	assert.Equal(t, 2.0, gp.Sunlight)
	assert.Equal(t, 6.0, gp.CloudyDays)
	assert.Equal(t, "A", gp.NearestCity)

	square, err := NewInterpolator(cities, WithPower(2))
	require.NoError(t, err)
	gp, err = square.Interpolate(target)
	require.NoError(t, err)
	assert.Equal(t, 6.0, gp.HighTemp) // 100/17
	assert.Equal(t, 0.6, gp.Sunlight)
}

func TestInterpolate_WithNeighbors(t *testing.T) {
	ip, err := NewInterpolator(DefaultCities(), WithNeighbors(1))
	require.NoError(t, err)

	gp, err := ip.Interpolate(Coordinate{Lat: 50, Lon: 0})
	require.NoError(t, err)

	assert.Equal(t, "London", gp.NearestCity)
	assert.Equal(t, Metrics{HighTemp: 70, LowTemp: 50, AvgTemp: 60, Sunlight: 5, CloudyDays: 15}, gp.Metrics)
}

func TestInterpolate_IgnoresInvalidOptions(t *testing.T) {
	ip, err := NewInterpolator(DefaultCities(), WithNeighbors(0), WithPower(-1))
	require.NoError(t, err)
	assert.Equal(t, DefaultNeighbors, ip.neighbors)
	assert.Equal(t, DefaultPower, ip.power)
}

func TestInterpolate_WithinNeighborBounds(t *testing.T) {
	cities := DefaultCities()
	ip, err := NewInterpolator(cities)
	require.NoError(t, err)

	grid, err := ip.BuildGlobalGrid(DefaultGridStep, DefaultGridStep)
	require.NoError(t, err)

	for _, gp := range grid.Points {
		nearest := nearestCities(cities, gp.Coordinate, DefaultNeighbors)
		for _, d := range Dimensions() {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, c := range nearest {
				lo = math.Min(lo, c.Value(d))
				hi = math.Max(hi, c.Value(d))
			}
			// Rounding can move a value by at most half its rounding step.
			slack := 0.5 + 1e-9
			if d == Sunlight {
				slack = 0.05 + 1e-9
			}
			v := gp.Value(d)
			if v < lo-slack || v > hi+slack {
				t.Fatalf("%s at %v = %g, want within [%g, %g]", d, gp.Coordinate, v, lo, hi)
			}
		}
		assert.Equal(t, nearest[0].Name, gp.NearestCity)
	}
}

func nearestCities(cities []CityObservation, p Coordinate, n int) []CityObservation {
	sorted := slices.Clone(cities)
	slices.SortStableFunc(sorted, func(a, b CityObservation) int {
		da, db := Distance(p, a.Coordinate), Distance(p, b.Coordinate)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})
	return sorted[:min(n, len(sorted))]
}

func TestBuildGlobalGrid(t *testing.T) {
	ip, err := NewInterpolator(DefaultCities())
	require.NoError(t, err)

	grid, err := ip.BuildGlobalGrid(5, 5)
	require.NoError(t, err)

	assert.Equal(t, 35, grid.Rows)
	assert.Equal(t, 73, grid.Cols)
	require.Len(t, grid.Points, 35*73)
	assert.Equal(t, Coordinate{Lat: -85, Lon: -180}, grid.Points[0].Coordinate)
	assert.Equal(t, Coordinate{Lat: -85, Lon: -175}, grid.Points[1].Coordinate)
	assert.Equal(t, Coordinate{Lat: -80, Lon: -180}, grid.Points[73].Coordinate)
	assert.Equal(t, Coordinate{Lat: 85, Lon: 180}, grid.Points[len(grid.Points)-1].Coordinate)

	for i := 1; i < len(grid.Points); i++ {
		prev, cur := grid.Points[i-1].Coordinate, grid.Points[i].Coordinate
		ordered := cur.Lat > prev.Lat || (cur.Lat == prev.Lat && cur.Lon > prev.Lon)
		require.True(t, ordered, "point %d out of order: %v after %v", i, cur, prev)
	}
}

func TestBuildGlobalGrid_FractionalStep(t *testing.T) {
	ip, err := NewInterpolator(DefaultCities())
	require.NoError(t, err)

	grid, err := ip.BuildGlobalGrid(2.5, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 69, grid.Rows)
	assert.Equal(t, 145, grid.Cols)
	assert.Equal(t, Coordinate{Lat: 85, Lon: 180}, grid.Points[len(grid.Points)-1].Coordinate)
}

func TestBuildGlobalGrid_InvalidStep(t *testing.T) {
	ip, err := NewInterpolator(DefaultCities())
	require.NoError(t, err)

	for _, steps := range [][2]float64{{0, 5}, {5, 0}, {-5, 5}, {math.NaN(), 5}} {
		_, err := ip.BuildGlobalGrid(steps[0], steps[1])
		assert.ErrorIs(t, err, ErrInvalidInput, "steps %v", steps)
	}
}

func TestGrid_NearestIndex(t *testing.T) {
	ip, err := NewInterpolator(DefaultCities())
	require.NoError(t, err)
	grid, err := ip.BuildGlobalGrid(5, 5)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   Coordinate
		want Coordinate
	}{
		{"on node", Coordinate{Lat: 10, Lon: 20}, Coordinate{Lat: 10, Lon: 20}},
		{"rounds per axis", Coordinate{Lat: 1.2, Lon: 2.6}, Coordinate{Lat: 0, Lon: 5}},
		{"clamps north east", Coordinate{Lat: 89, Lon: 200}, Coordinate{Lat: 85, Lon: 180}},
		{"clamps south west", Coordinate{Lat: -90, Lon: -181}, Coordinate{Lat: -85, Lon: -180}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, grid.Points[grid.NearestIndex(tt.in)].Coordinate)
		})
	}
}
