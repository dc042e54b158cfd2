package domain

import "math"

// weightFloors is the minimum denominator per dimension when weighting by
// range width, so very narrow ranges cannot dominate without bound.
var weightFloors = [NumDimensions]float64{
	HighTemp:    5,
	LowTemp:     5,
	OverallTemp: 5,
	Sunlight:    1,
	Cloudy:      2,
}

// rawWeights returns 1 / max(width, floor) per dimension and their sum.
func rawWeights(r Ranges) ([NumDimensions]float64, float64) {
	var w [NumDimensions]float64
	var total float64
	for _, d := range Dimensions() {
		w[d] = 1 / math.Max(r[d].Width(), weightFloors[d])
		total += w[d]
	}
	return w, total
}

// Weights returns the normalised per-dimension weights for r; they sum to 1.
func Weights(r Ranges) [NumDimensions]float64 {
	w, total := rawWeights(r)
	for d := range w {
		w[d] /= total
	}
	return w
}

// Closeness is 1 at the midpoint of fr and 0 at either edge. A zero-width
// range yields 1; callers must gate values outside fr before calling.
func Closeness(v float64, fr FilterRange) float64 {
	width := fr.Width()
	if width == 0 {
		return 1
	}
	return 1 - math.Abs(v-fr.Midpoint())/(width/2)
}

// InRange reports whether every metric of m lies within its range in r.
func InRange(m Metrics, r Ranges) bool {
	for _, d := range Dimensions() {
		if !r[d].Contains(m.Value(d)) {
			return false
		}
	}
	return true
}

// Score rates how well m matches r on a 0..1 scale. Any metric outside its
// range scores exactly 0; otherwise the score is the weighted mean closeness
// to each range midpoint.
func Score(m Metrics, r Ranges) float64 {
	if !InRange(m, r) {
		return 0
	}

	w, total := rawWeights(r)
	var sum float64
	for _, d := range Dimensions() {
		sum += w[d] * Closeness(m.Value(d), r[d])
	}
	// Dividing by the raw total (rather than pre-normalising) keeps an all-midpoint match at exactly 1.
	return math.Min(1, math.Max(0, sum/total))
}

// MatchPercentage converts a score to a whole percentage.
func MatchPercentage(score float64) int {
	return int(math.Round(score * 100))
}
