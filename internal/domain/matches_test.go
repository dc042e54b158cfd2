package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCities_DefaultRangesKeepEveryCity(t *testing.T) {
	matches := MatchCities(DefaultCities(), DefaultRanges())
	require.Len(t, matches, 20)
	assert.Equal(t, "New York", matches[0].City.Name)
	for _, m := range matches {
		assert.Greater(t, m.Score, 0.0)
		assert.Equal(t, m.Score > HighlightThreshold, m.Highlighted)
		assert.Equal(t, CityPopup(m.City, m.Score), m.Popup)
	}
}

func TestMatchCities_TightRanges(t *testing.T) {
	r := Ranges{
		HighTemp:    {Min: 80, Max: 90},
		LowTemp:     {Min: 60, Max: 70},
		OverallTemp: {Min: 70, Max: 80},
		Sunlight:    {Min: 6, Max: 8},
		Cloudy:      {Min: 8, Max: 12},
	}

	matches := MatchCities(DefaultCities(), r)

	byName := make(map[string]CityMatch, len(matches))
	for _, m := range matches {
		byName[m.City.Name] = m
	}

	ny, ok := byName["New York"]
	require.True(t, ok)
	assert.Equal(t, 1.0, ny.Score)
	assert.True(t, ny.Highlighted)

	_, ok = byName["Buenos Aires"]
	assert.False(t, ok, "8.5 hours of sunlight is outside [6, 8]")
	_, ok = byName["Moscow"]
	assert.False(t, ok)
}

func TestScoreGrid(t *testing.T) {
	grid := defaultGrid(t)
	scores := ScoreGrid(grid, DefaultRanges())
	require.Len(t, scores, len(grid.Points))
	for i, s := range scores {
		assert.Equal(t, Score(grid.Points[i].Metrics, DefaultRanges()), s)
	}
}
