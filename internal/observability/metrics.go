package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_watch"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Fetcher metrics.
	FetchAttempts *prometheus.CounterVec   // labels: host, outcome={success,retry,failure}
	FetchDuration *prometheus.HistogramVec // labels: host

	// Source adapter metrics.
	AdapterReports  *prometheus.CounterVec // labels: source
	AdapterFailures *prometheus.CounterVec // labels: source

	// Aggregation metrics.
	AggregationRuns     *prometheus.CounterVec   // labels: kind={global,location}, status
	AggregationDuration *prometheus.HistogramVec // labels: kind
	GenuineReports      prometheus.Histogram

	// Geocoding metrics.
	GeocodeCache *prometheus.CounterVec // labels: result={hit,miss}

	// Alert engine metrics.
	AlertChecks   *prometheus.CounterVec // labels: status
	AlertReports  *prometheus.CounterVec // labels: tier
	Notifications *prometheus.CounterVec // labels: category
	ArchiveWrites *prometheus.CounterVec // labels: outcome={success,error}

	SchedulerRunning prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP fetch attempts by provider host and outcome.",
		}, []string{"host", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single HTTP fetch attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"host"}),
		AdapterReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_reports_total",
			Help:      "Reports produced by each source adapter.",
		}, []string{"source"}),
		AdapterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_failures_total",
			Help:      "Source adapter calls that returned nothing because the provider failed.",
		}, []string{"source"}),
		AggregationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_runs_total",
			Help:      "Aggregation runs by kind and final status.",
		}, []string{"kind", "status"}),
		AggregationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a complete aggregation run.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"kind"}),
		GenuineReports: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "genuine_reports",
			Help:      "Number of genuine reports per location aggregation.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Coordinate cache lookups by result.",
		}, []string{"result"}),
		AlertChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_checks_total",
			Help:      "Alert evaluations by final status.",
		}, []string{"status"}),
		AlertReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_reports_total",
			Help:      "Reports bucketed into each alert tier.",
		}, []string{"tier"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_requested_total",
			Help:      "Notification requests by category.",
		}, []string{"category"}),
		ArchiveWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_writes_total",
			Help:      "Report archive writes by outcome.",
		}, []string{"outcome"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the periodic alert check loop is active.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchAttempts,
		m.FetchDuration,
		m.AdapterReports,
		m.AdapterFailures,
		m.AggregationRuns,
		m.AggregationDuration,
		m.GenuineReports,
		m.GeocodeCache,
		m.AlertChecks,
		m.AlertReports,
		m.Notifications,
		m.ArchiveWrites,
		m.SchedulerRunning,
	}
}
