// Command gridgen interpolates the global climate lattice from a city
// catalogue and writes it as JSON. With -scored-out it also scores every
// lattice sample against the given ranges.
//
// Usage:
//
//	go run ./cmd/gridgen \
//	  -out data/grid_5deg.json \
//	  -scored-out data/grid_5deg_scored.json \
//	  -ranges high_temp=70:90,sunlight=6:10
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/goccy/go-json"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	citiesFile := flag.String("cities", "", "YAML city catalogue (default: built-in catalogue)")
	latStep := flag.Float64("lat-step", domain.DefaultGridStep, "latitude step in degrees")
	lonStep := flag.Float64("lon-step", domain.DefaultGridStep, "longitude step in degrees")
	neighbors := flag.Int("neighbors", domain.DefaultNeighbors, "nearest cities blended per sample")
	power := flag.Float64("power", domain.DefaultPower, "inverse-distance weighting exponent")
	out := flag.String("out", "", "output path for the grid JSON")
	scoredOut := flag.String("scored-out", "", "optional output path for scored samples")
	rangesFlag := flag.String("ranges", "", "comma-separated dimension=min:max overrides of the default ranges")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	cities, err := loadCities(*citiesFile)
	if err != nil {
		return err
	}
	ip, err := domain.NewInterpolator(cities, domain.WithNeighbors(*neighbors), domain.WithPower(*power))
	if err != nil {
		return err
	}
	grid, err := ip.BuildGlobalGrid(*latStep, *lonStep)
	if err != nil {
		return err
	}
	log.Printf("interpolated %d samples (%d x %d) from %d cities", len(grid.Points), grid.Rows, grid.Cols, len(cities))

	if err := writeJSON(*out, grid); err != nil {
		return fmt.Errorf("writing grid: %w", err)
	}
	log.Printf("wrote grid: %s", *out)

	if *scoredOut == "" {
		return nil
	}

	ranges, err := parseRanges(*rangesFlag)
	if err != nil {
		return err
	}
	scores := domain.ScoreGrid(grid, ranges)
	scored := make([]domain.ScoredPoint, 0, len(scores))
	for i, s := range scores {
		if s > 0 {
			scored = append(scored, domain.ScoredPoint{GridPoint: grid.Points[i], Score: s})
		}
	}
	if err := writeJSON(*scoredOut, map[string]any{"ranges": ranges, "points": scored}); err != nil {
		return fmt.Errorf("writing scored samples: %w", err)
	}
	log.Printf("wrote %d matching samples: %s", len(scored), *scoredOut)
	return nil
}

func loadCities(path string) ([]domain.CityObservation, error) {
	if path == "" {
		return domain.DefaultCities(), nil
	}
	return domain.LoadCities(path)
}

// parseRanges applies "dimension=min:max" overrides to the default ranges.
func parseRanges(s string) (domain.Ranges, error) {
	r := domain.DefaultRanges()
	if s == "" {
		return r, nil
	}
	for _, part := range strings.Split(s, ",") {
		name, bounds, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return r, fmt.Errorf("range %q: want dimension=min:max", part)
		}
		d, err := domain.ParseDimension(name)
		if err != nil {
			return r, err
		}
		lo, hi, ok := strings.Cut(bounds, ":")
		if !ok {
			return r, fmt.Errorf("range %q: want dimension=min:max", part)
		}
		minV, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return r, fmt.Errorf("range %q: %w", part, err)
		}
		maxV, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return r, fmt.Errorf("range %q: %w", part, err)
		}
		r[d] = domain.FilterRange{Min: minV, Max: maxV}
	}
	return r, r.Validate()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
