package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	RowsIngested prometheus.Counter
	RowsRejected prometheus.Counter

	// Analytics metrics.
	ForecastRequests  *prometheus.CounterVec // labels: status={success,default}
	RiskAssessments   *prometheus.CounterVec // labels: level={low,medium,high,unknown}
	SnapshotsPersists prometheus.Counter

	// HTTP metrics.
	RequestDuration *prometheus.HistogramVec // labels: method, route, status
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsIngested,
		m.RowsRejected,
		m.ForecastRequests,
		m.RiskAssessments,
		m.SnapshotsPersists,
		m.RequestDuration,
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
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crimevision",
			Name:      "rows_ingested_total",
			Help:      "Total crime records accepted from uploads.",
		}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crimevision",
			Name:      "rows_rejected_total",
			Help:      "Total upload rows rejected during parsing or validation.",
		}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crimevision",
			Name:      "forecast_requests_total",
			Help:      "Forecast computations by outcome.",
		}, []string{"status"}),
		RiskAssessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crimevision",
			Name:      "risk_assessments_total",
			Help:      "Risk assessments by resulting level.",
		}, []string{"level"}),
		SnapshotsPersists: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crimevision",
			Name:      "risk_snapshots_persisted_total",
			Help:      "Risk snapshots written by the nightly job.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crimevision",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method, route and status code.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}
