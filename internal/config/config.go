package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Grid interpolation.
	GridLatStep  float64
	GridLonStep  float64
	IDWNeighbors int
	IDWPower     float64
	CitiesFile   string

	// Recompute coalescing and region limits.
	FilterDebounce  time.Duration
	ZoomDebounce    time.Duration
	MaxRegionCells  int
	RegionCacheSize int

	// Snapshot publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	latStep, err := parsePositiveFloat("GRID_LAT_STEP", 5)
	if err != nil {
		return nil, err
	}
	lonStep, err := parsePositiveFloat("GRID_LON_STEP", 5)
	if err != nil {
		return nil, err
	}
	power, err := parsePositiveFloat("IDW_POWER", 1)
	if err != nil {
		return nil, err
	}
	neighbors, err := parsePositiveInt("IDW_NEIGHBORS", 5)
	if err != nil {
		return nil, err
	}

	filterDebounce, err := parseDuration("FILTER_DEBOUNCE", "150ms")
	if err != nil {
		return nil, err
	}
	zoomDebounce, err := parseDuration("ZOOM_DEBOUNCE", "300ms")
	if err != nil {
		return nil, err
	}

	maxCells, err := parsePositiveInt("MAX_REGION_CELLS", 50000)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("REGION_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GridLatStep:  latStep,
		GridLonStep:  lonStep,
		IDWNeighbors: neighbors,
		IDWPower:     power,
		CitiesFile:   os.Getenv("CITIES_FILE"),

		FilterDebounce:  filterDebounce,
		ZoomDebounce:    zoomDebounce,
		MaxRegionCells:  maxCells,
		RegionCacheSize: cacheSize,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "climate-match-snapshots"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
