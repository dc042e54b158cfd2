package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the match service.
type Metrics struct {
	Recomputes        prometheus.Counter
	RecomputeErrors   prometheus.Counter
	RecomputeDuration prometheus.Histogram
	ControllerRunning prometheus.Gauge

	// Debounce metrics.
	DebounceCoalesced *prometheus.CounterVec // labels: trigger={filter,viewport}

	// State gauges, refreshed after every recompute.
	GridPoints     prometheus.Gauge
	MatchedRegions prometheus.Gauge
	MatchedCities  prometheus.Gauge

	// Region cache and snapshot publishing.
	RegionCache        *prometheus.CounterVec // labels: result={hit,miss}
	SnapshotsPublished *prometheus.CounterVec // labels: outcome={success,error,rejected}
}

const namespace = "climate_match"

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Recomputes,
		m.RecomputeErrors,
		m.RecomputeDuration,
		m.ControllerRunning,
		m.DebounceCoalesced,
		m.GridPoints,
		m.MatchedRegions,
		m.MatchedCities,
		m.RegionCache,
		m.SnapshotsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Total layer recomputations.",
		}),
		RecomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_errors_total",
			Help:      "Total failed layer recomputations.",
		}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of scoring, aggregation and layer replacement.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ControllerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controller_running",
			Help:      "1 when the match controller is active, 0 when shut down.",
		}),
		DebounceCoalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounce_coalesced_total",
			Help:      "Triggers absorbed into a later pending recompute, by trigger.",
		}, []string{"trigger"}),
		GridPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_points",
			Help:      "Number of interpolated lattice samples.",
		}),
		MatchedRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matched_regions",
			Help:      "Map cells with a positive score in the current layers.",
		}),
		MatchedCities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matched_cities",
			Help:      "Catalogue cities with a positive score in the current layers.",
		}),
		RegionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_cache_total",
			Help:      "Region cache lookups by result.",
		}, []string{"result"}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshot publish attempts by outcome.",
		}, []string{"outcome"}),
	}
}
