// Command validate checks an interpolated grid JSON file (as written by
// gridgen) against the city catalogue it was built from: lattice size and
// order, rounding, convex-combination bounds, and the nearest-city
// annotation of every sample.
//
// Usage:
//
//	go run ./cmd/validate -grid data/grid_5deg.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/goccy/go-json"
)

// Rounding can move a value by at most half its rounding step.
const (
	wholeSlack    = 0.5 + 1e-9
	sunlightSlack = 0.05 + 1e-9
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	gridPath := flag.String("grid", "", "path to grid JSON")
	citiesFile := flag.String("cities", "", "YAML city catalogue (default: built-in catalogue)")
	neighbors := flag.Int("neighbors", domain.DefaultNeighbors, "nearest cities blended per sample")
	flag.Parse()

	if *gridPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*gridPath, *citiesFile, *neighbors); code != 0 {
		os.Exit(code)
	}
}

func run(gridPath, citiesFile string, neighbors int) int {
	fmt.Println("=== Climate Grid Validation ===")
	fmt.Println()

	grid, err := loadGrid(gridPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load grid: %v\n", err)
		return 1
	}

	cities := domain.DefaultCities()
	if citiesFile != "" {
		cities, err = domain.LoadCities(citiesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load cities: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		validateLattice(grid),
		validateRounding(grid),
		validateBounds(grid, cities, neighbors),
		validateNearestCity(grid, cities),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Samples: %d (%d x %d), cities: %d\n", len(grid.Points), grid.Rows, grid.Cols, len(cities))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadGrid(path string) (*domain.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g domain.Grid
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &g, nil
}

func validateLattice(g *domain.Grid) *phase {
	p := &phase{name: "Lattice size and order"}
	if !(g.LatStep > 0) || !(g.LonStep > 0) {
		p.errorf("non-positive steps: lat %g, lon %g", g.LatStep, g.LonStep)
		return p
	}
	if len(g.Points) != g.Rows*g.Cols {
		p.errorf("%d points, want rows*cols = %d", len(g.Points), g.Rows*g.Cols)
		return p
	}
	for i, gp := range g.Points {
		r, c := i/g.Cols, i%g.Cols
		want := domain.Coordinate{
			Lat: domain.MinLat + float64(r)*g.LatStep,
			Lon: domain.MinLon + float64(c)*g.LonStep,
		}
		if math.Abs(gp.Lat-want.Lat) > 1e-9 || math.Abs(gp.Lon-want.Lon) > 1e-9 {
			p.errorf("point %d at %v, want %v", i, gp.Coordinate, want)
		}
	}
	if n := len(g.Points); n > 0 {
		last := g.Points[n-1].Coordinate
		if last.Lat > domain.MaxLat+1e-9 || last.Lon > domain.MaxLon+1e-9 {
			p.errorf("last point %v lies beyond the lattice bounds", last)
		}
	}
	return p
}

func validateRounding(g *domain.Grid) *phase {
	p := &phase{name: "Metric rounding"}
	for _, gp := range g.Points {
		for _, v := range []float64{gp.HighTemp, gp.LowTemp, gp.AvgTemp, gp.CloudyDays} {
			if v != math.Round(v) {
				p.errorf("%v: %g is not a whole number", gp.Coordinate, v)
			}
		}
		if tenths := gp.Sunlight * 10; math.Abs(tenths-math.Round(tenths)) > 1e-6 {
			p.errorf("%v: sunlight %g is not rounded to 0.1", gp.Coordinate, gp.Sunlight)
		}
	}
	return p
}

func validateBounds(g *domain.Grid, cities []domain.CityObservation, neighbors int) *phase {
	p := &phase{name: "Convex-combination bounds"}
	for _, gp := range g.Points {
		nearest := nearestCities(cities, gp.Coordinate, neighbors)
		for _, d := range domain.Dimensions() {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, c := range nearest {
				lo = math.Min(lo, c.Value(d))
				hi = math.Max(hi, c.Value(d))
			}
			slack := wholeSlack
			if d == domain.Sunlight {
				slack = sunlightSlack
			}
			if v := gp.Value(d); v < lo-slack || v > hi+slack {
				p.errorf("%v: %s = %g outside [%g, %g]", gp.Coordinate, d, v, lo, hi)
			}
		}
	}
	return p
}

func validateNearestCity(g *domain.Grid, cities []domain.CityObservation) *phase {
	p := &phase{name: "Nearest-city annotation"}
	for _, gp := range g.Points {
		nearest := nearestCities(cities, gp.Coordinate, 1)
		if len(nearest) == 0 {
			p.errorf("empty city catalogue")
			return p
		}
		want := nearest[0]
		if gp.NearestCity != want.Name {
			p.errorf("%v: nearest city %q, want %q", gp.Coordinate, gp.NearestCity, want.Name)
			continue
		}
		if d := domain.Distance(gp.Coordinate, want.Coordinate); math.Abs(d-gp.DistanceToCity) > 1e-6 {
			p.errorf("%v: distance %g km, want %g km", gp.Coordinate, gp.DistanceToCity, d)
		}
	}
	return p
}

// nearestCities returns the n closest cities to c, ties in catalogue order.
func nearestCities(cities []domain.CityObservation, c domain.Coordinate, n int) []domain.CityObservation {
	sorted := slices.Clone(cities)
	slices.SortStableFunc(sorted, func(a, b domain.CityObservation) int {
		da, db := domain.Distance(c, a.Coordinate), domain.Distance(c, b.Coordinate)
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
