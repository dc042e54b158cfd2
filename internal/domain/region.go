package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FillOpacityScale maps a score to the fill opacity of its map cell.
const FillOpacityScale = 0.8

// GridSizeForZoom returns the region cell size in degrees for a map zoom level.
func GridSizeForZoom(zoom float64) float64 {
	switch {
	case zoom <= 2:
		return 5
	case zoom <= 4:
		return 2.5
	case zoom <= 6:
		return 1
	default:
		return 0.5
	}
}

// CellCount returns how many cells Aggregate would visit for v.
func CellCount(v Viewport) int {
	size := GridSizeForZoom(v.Zoom)
	latSteps := int(math.Ceil((v.Bounds.North - v.Bounds.South) / size))
	lonSteps := int(math.Ceil((v.Bounds.East - v.Bounds.West) / size))
	return (latSteps + 1) * (lonSteps + 1)
}

// Aggregate groups scored lattice samples into map cells covering the
// viewport. scores is parallel to g.Points. Each cell takes the data of its
// nearest lattice node; cells whose node scores 0 are omitted. A viewport
// needing more than maxCells cells fails with ErrInvalidInput (maxCells <= 0
// disables the limit).
func Aggregate(g *Grid, scores []float64, v Viewport, maxCells int) ([]Region, error) {
	if len(scores) != len(g.Points) {
		return nil, fmt.Errorf("aggregate: %d scores for %d grid points: %w", len(scores), len(g.Points), ErrInvalidInput)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if n := CellCount(v); maxCells > 0 && n > maxCells {
		return nil, fmt.Errorf("viewport needs %d cells, limit is %d: %w", n, maxCells, ErrInvalidInput)
	}

	size := GridSizeForZoom(v.Zoom)
	latSteps := int(math.Ceil((v.Bounds.North - v.Bounds.South) / size))
	lonSteps := int(math.Ceil((v.Bounds.East - v.Bounds.West) / size))

	var regions []Region
	for latIdx := 0; latIdx <= latSteps; latIdx++ {
		lat := v.Bounds.South + float64(latIdx)*size
		if lat < MinLat || lat > MaxLat {
			continue
		}
		for lonIdx := 0; lonIdx <= lonSteps; lonIdx++ {
			lon := v.Bounds.West + float64(lonIdx)*size
			if lon < MinLon || lon > MaxLon {
				continue
			}

			idx := g.NearestIndex(Coordinate{Lat: lat, Lon: lon})
			score := scores[idx]
			if score <= 0 {
				continue
			}

			point := ScoredPoint{GridPoint: g.Points[idx], Score: score}
			regions = append(regions, Region{
				Polygon:     cellRing(lat, lon, size),
				Point:       point,
				Score:       score,
				FillOpacity: score * FillOpacityScale,
				Popup:       RegionPopup(point),
			})
		}
	}
	return regions, nil
}

// cellRing returns the closed [lon, lat] ring of a square cell whose
// south-west corner is (lat, lon).
func cellRing(lat, lon, size float64) [][2]float64 {
	return [][2]float64{
		{lon, lat},
		{lon, lat + size},
		{lon + size, lat + size},
		{lon + size, lat},
		{lon, lat},
	}
}

// RegionPopup renders the popup text of a map cell.
func RegionPopup(p ScoredPoint) string {
	var b strings.Builder
	b.WriteString("Weather Data\n")
	b.WriteString("Nearest City: " + p.NearestCity + "\n")
	writeMetrics(&b, p.Metrics)
	fmt.Fprintf(&b, "Match Score: %d%%", MatchPercentage(p.Score))
	return b.String()
}

// CityPopup renders the popup text of a city marker.
func CityPopup(c CityObservation, score float64) string {
	var b strings.Builder
	b.WriteString(c.Name + "\n")
	writeMetrics(&b, c.Metrics)
	fmt.Fprintf(&b, "Match Score: %d%%", MatchPercentage(score))
	return b.String()
}

func writeMetrics(b *strings.Builder, m Metrics) {
	b.WriteString("High Temp: " + formatNumber(m.HighTemp) + "°F\n")
	b.WriteString("Low Temp: " + formatNumber(m.LowTemp) + "°F\n")
	b.WriteString("Avg Temp: " + formatNumber(m.AvgTemp) + "°F\n")
	b.WriteString("Sunlight: " + formatNumber(m.Sunlight) + " hrs/day\n")
	b.WriteString("Cloudy Days: " + formatNumber(m.CloudyDays) + "/month\n")
}

// formatNumber prints the shortest representation: 75, 62.5, 6.5.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
