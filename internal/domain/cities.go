package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultCities is the hand-curated catalogue the grid is interpolated from.
var defaultCities = []CityObservation{
	city("New York", 40.7128, -74.0060, 85, 65, 75, 7, 10),
	city("London", 51.5074, -0.1278, 70, 50, 60, 5, 15),
	city("Sydney", -33.8688, 151.2093, 82, 64, 73, 8, 8),
	city("Paris", 48.8566, 2.3522, 75, 55, 65, 6, 12),
	city("Tokyo", 35.6762, 139.6503, 80, 60, 70, 6.5, 11),
	city("Mexico City", 19.4326, -99.1332, 75, 55, 65, 8, 9),
	city("Rio de Janeiro", -22.9068, -43.1729, 88, 70, 79, 9, 7),
	city("Moscow", 55.7558, 37.6173, 65, 45, 55, 4, 18),
	city("San Francisco", 37.7749, -122.4194, 70, 55, 62.5, 7.5, 13),
	city("Singapore", 1.3521, 103.8198, 90, 75, 82.5, 8, 14),
	city("Dubai", 25.2048, 55.2708, 105, 80, 92.5, 10, 5),
	city("Buenos Aires", -34.6037, -58.3816, 85, 65, 75, 8.5, 9),
	city("Orlando", 28.5383, -81.3792, 92, 70, 81, 9, 8),
	city("Oslo", 59.9139, 10.7522, 68, 37, 52.5, 4.5, 16),
	city("Shanghai", 31.2304, 121.4737, 88, 65, 76.5, 7, 12),
	city("Lagos", 6.5244, 3.3792, 91, 73, 82, 8, 10),
	city("Rome", 41.9028, 12.4964, 86, 60, 73, 8, 9),
	city("Nairobi", -1.2921, 36.8219, 77, 55, 66, 9, 11),
	city("Chennai", 13.0827, 80.2707, 100, 78, 89, 9.5, 7),
	city("Harare", -17.8252, 31.0335, 82, 55, 68.5, 9, 7),
}

func city(name string, lat, lon, high, low, avg, sun, cloudy float64) CityObservation {
	return CityObservation{
		Name:       name,
		Coordinate: Coordinate{Lat: lat, Lon: lon},
		Metrics:    Metrics{HighTemp: high, LowTemp: low, AvgTemp: avg, Sunlight: sun, CloudyDays: cloudy},
	}
}

// DefaultCities returns a copy of the built-in catalogue.
func DefaultCities() []CityObservation {
	out := make([]CityObservation, len(defaultCities))
	copy(out, defaultCities)
	return out
}

// cityCatalog is the YAML layout accepted by LoadCities.
type cityCatalog struct {
	Cities []CityObservation `yaml:"cities"`
}

// LoadCities reads a YAML city catalogue:
//
//	cities:
//	  - name: Lisbon
//	    lat: 38.72
//	    lon: -9.14
//	    high_temp: 80
//	    ...
func LoadCities(path string) ([]CityObservation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read city catalogue: %w", err)
	}
	return ParseCities(data)
}

// ParseCities decodes a YAML city catalogue and validates its entries.
func ParseCities(data []byte) ([]CityObservation, error) {
	var catalog cityCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse city catalogue: %w", err)
	}
	if len(catalog.Cities) == 0 {
		return nil, fmt.Errorf("city catalogue is empty: %w", ErrInvalidInput)
	}
	for i, c := range catalog.Cities {
		if c.Name == "" {
			return nil, fmt.Errorf("city %d has no name: %w", i, ErrInvalidInput)
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return nil, fmt.Errorf("city %q has out-of-range coordinates: %w", c.Name, ErrInvalidInput)
		}
	}
	return catalog.Cities, nil
}
