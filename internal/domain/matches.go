package domain

import "time"

// HighlightThreshold is the score above which a matching city is highlighted.
const HighlightThreshold = 0.5

// ScoreGrid scores every lattice sample against r; the result is parallel to g.Points.
func ScoreGrid(g *Grid, r Ranges) []float64 {
	scores := make([]float64, len(g.Points))
	for i := range g.Points {
		scores[i] = Score(g.Points[i].Metrics, r)
	}
	return scores
}

// MatchCities scores each city against r and keeps those scoring above 0,
// in catalogue order.
func MatchCities(cities []CityObservation, r Ranges) []CityMatch {
	matches := make([]CityMatch, 0, len(cities))
	for _, c := range cities {
		s := Score(c.Metrics, r)
		if s <= 0 {
			continue
		}
		matches = append(matches, CityMatch{
			City:        c,
			Score:       s,
			Highlighted: s > HighlightThreshold,
			Popup:       CityPopup(c, s),
		})
	}
	return matches
}

// Snapshot summarises one recompute for downstream consumers.
type Snapshot struct {
	ID             string      `json:"id"`
	Generation     uint64      `json:"generation"`
	Ranges         Ranges      `json:"ranges"`
	Viewport       Viewport    `json:"viewport"`
	CellSize       float64     `json:"cell_size"`
	MatchedRegions int         `json:"matched_regions"`
	Cities         []CityMatch `json:"cities"`
	ComputedAt     time.Time   `json:"computed_at"`
}
