package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricFeedRequestsTotal    = "feed_requests_total"
	MetricFeedDurationSeconds  = "feed_assembly_duration_seconds"
	MetricFeedCandidatesScored = "feed_candidates_scored"
)

// Request status constants for labeling.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid_request"
	StatusError   = "error"
)

// Metrics contains Prometheus metrics for feed assembly.
// All operations are thread-safe.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	candidates    prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedRequestsTotal,
				Help: "Total number of feed requests by algorithm and status",
			},
			[]string{"algorithm", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricFeedDurationSeconds,
				Help:    "Histogram of feed assembly duration in seconds by algorithm",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"algorithm"},
		),
		candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricFeedCandidatesScored,
				Help:    "Histogram of candidate set sizes scored per feed request",
				Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.duration,
		m.candidates,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRequests increments the feed request counter.
func (m *Metrics) IncRequests(algorithm, status string) {
	m.requestsTotal.WithLabelValues(algorithm, status).Inc()
}

// ObserveDuration records a feed assembly duration sample.
func (m *Metrics) ObserveDuration(algorithm string, seconds float64) {
	m.duration.WithLabelValues(algorithm).Observe(seconds)
}

// ObserveCandidates records the candidate set size of one request.
func (m *Metrics) ObserveCandidates(n float64) {
	m.candidates.Observe(n)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requestsTotal, m.duration, m.candidates}
}
