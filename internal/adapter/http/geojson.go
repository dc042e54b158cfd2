package http

import (
	"time"

	"github.com/couchcryptid/climate-match-service/internal/domain"
)

// GeoJSON FeatureCollection as consumed by web map layers.
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func regionFeatures(regions []domain.Region) featureCollection {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(regions))}
	for _, r := range regions {
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Polygon",
				Coordinates: [][][2]float64{r.Polygon},
			},
			Properties: map[string]any{
				"score":            r.Score,
				"match_percentage": domain.MatchPercentage(r.Score),
				"fill_opacity":     r.FillOpacity,
				"nearest_city":     r.Point.NearestCity,
				"metrics":          r.Point.Metrics,
				"popup":            r.Popup,
			},
		})
	}
	return fc
}

func cityFeatures(cities []domain.CityMatch) featureCollection {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(cities))}
	for _, c := range cities {
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Point",
				Coordinates: [2]float64{c.City.Lon, c.City.Lat},
			},
			Properties: map[string]any{
				"name":             c.City.Name,
				"score":            c.Score,
				"match_percentage": domain.MatchPercentage(c.Score),
				"highlighted":      c.Highlighted,
				"metrics":          c.City.Metrics,
				"popup":            c.Popup,
			},
		})
	}
	return fc
}

type layersResponse struct {
	Generation uint64            `json:"generation"`
	Ranges     domain.Ranges     `json:"ranges"`
	Viewport   domain.Viewport   `json:"viewport"`
	CellSize   float64           `json:"cell_size"`
	ComputedAt time.Time         `json:"computed_at"`
	Regions    featureCollection `json:"regions"`
	Cities     featureCollection `json:"cities"`
}

func newLayersResponse(l domain.Layers) layersResponse {
	return layersResponse{
		Generation: l.Generation,
		Ranges:     l.Ranges,
		Viewport:   l.Viewport,
		CellSize:   l.CellSize,
		ComputedAt: l.ComputedAt,
		Regions:    regionFeatures(l.Regions),
		Cities:     cityFeatures(l.Cities),
	}
}
