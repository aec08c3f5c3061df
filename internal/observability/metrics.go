package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "station_index"

// Metrics holds the Prometheus counters, histograms, and gauges for a station index run.
type Metrics struct {
	// RIS-Stations API metrics.
	RISRequests        *prometheus.CounterVec // labels: outcome={success,rate_limited,error}
	RISRequestDuration prometheus.Histogram
	RateLimitWaits     prometheus.Counter
	PagesFetched       prometheus.Counter
	StationsFetched    prometheus.Counter

	// Index metrics, set once per run.
	IndexEntries    prometheus.Gauge
	IndexMisses     prometheus.Gauge
	StationsSkipped prometheus.Gauge

	// Run metrics.
	RunDuration        prometheus.Histogram
	RunRunning         prometheus.Gauge
	LastSuccessSeconds prometheus.Gauge
	StationsPublished  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RISRequests,
		m.RISRequestDuration,
		m.RateLimitWaits,
		m.PagesFetched,
		m.StationsFetched,
		m.IndexEntries,
		m.IndexMisses,
		m.StationsSkipped,
		m.RunDuration,
		m.RunRunning,
		m.LastSuccessSeconds,
		m.StationsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RISRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ris_requests_total",
			Help:      "RIS-Stations API requests by outcome.",
		}, []string{"outcome"}),
		RISRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ris_request_duration_seconds",
			Help:      "RIS-Stations API request duration in seconds, excluding rate-limit waits.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RateLimitWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_waits_total",
			Help:      "Times a request was rejected with 429 and retried after waiting.",
		}),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Station directory pages accumulated.",
		}),
		StationsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_fetched_total",
			Help:      "Raw station records accumulated across all pages.",
		}),
		IndexEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_entries",
			Help:      "Stations in the name-keyed index after the last run.",
		}),
		IndexMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_misses",
			Help:      "Named stations without coordinates after the last run.",
		}),
		StationsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_skipped",
			Help:      "Station records without a usable name in the last run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-index-write run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		RunRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccessSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		StationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_published_total",
			Help:      "Index entries published to Kafka.",
		}),
	}
}
