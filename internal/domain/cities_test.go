package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogue = `
cities:
  - name: Lisbon
    lat: 38.7223
    lon: -9.1393
    high_temp: 82
    low_temp: 60
    avg_temp: 71
    sunlight: 9
    cloudy_days: 6
  - name: Reykjavik
    lat: 64.1466
    lon: -21.9426
    high_temp: 56
    low_temp: 45
    avg_temp: 50.5
    sunlight: 3.5
    cloudy_days: 20
`

func TestDefaultCities(t *testing.T) {
	cities := DefaultCities()
	require.Len(t, cities, 20)
	assert.Equal(t, "New York", cities[0].Name)
	assert.Equal(t, "Harare", cities[19].Name)

	cities[0].Name = "changed"
	assert.Equal(t, "New York", DefaultCities()[0].Name, "callers get a copy")
}

func TestParseCities(t *testing.T) {
	cities, err := ParseCities([]byte(testCatalogue))
	require.NoError(t, err)
	require.Len(t, cities, 2)

	assert.Equal(t, CityObservation{
		Name:       "Lisbon",
		Coordinate: Coordinate{Lat: 38.7223, Lon: -9.1393},
		Metrics:    Metrics{HighTemp: 82, LowTemp: 60, AvgTemp: 71, Sunlight: 9, CloudyDays: 6},
	}, cities[0])
	assert.Equal(t, 50.5, cities[1].AvgTemp)
}

func TestParseCities_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "cities: []"},
		{"missing name", "cities:\n  - lat: 1\n    lon: 1\n"},
		{"bad latitude", "cities:\n  - name: X\n    lat: 95\n    lon: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCities([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := ParseCities([]byte("cities: {"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse city catalogue")
}

func TestLoadCities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogue), 0o600))

	cities, err := LoadCities(path)
	require.NoError(t, err)
	assert.Len(t, cities, 2)

	_, err = LoadCities(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read city catalogue")
}
