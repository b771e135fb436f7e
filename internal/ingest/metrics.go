package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricEventsProcessed = "ingest_events_processed_total"
	MetricEventsError     = "ingest_events_error_total"
	MetricUpserts         = "ingest_upserts_total"
	MetricDeletes         = "ingest_deletes_total"
	MetricIngestLatency   = "ingest_event_latency_seconds"
)

// Metrics contains Prometheus metrics for the ingest pipeline.
// All operations are thread-safe.
type Metrics struct {
	eventsProcessed prometheus.Counter
	eventsError     prometheus.Counter
	upserts         *prometheus.CounterVec
	deletes         prometheus.Counter
	ingestLatency   prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		eventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEventsProcessed,
			Help: "Total number of firehose events processed",
		}),
		eventsError: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEventsError,
			Help: "Total number of firehose events that resulted in processing errors",
		}),
		upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricUpserts,
			Help: "Total number of article upserts, labelled by outcome",
		}, []string{"outcome"}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricDeletes,
			Help: "Total number of article retractions applied",
		}),
		ingestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricIngestLatency,
			Help:    "Histogram of event processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.eventsProcessed,
		m.eventsError,
		m.upserts,
		m.deletes,
		m.ingestLatency,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncEventsProcessed increments the events processed counter.
func (m *Metrics) IncEventsProcessed() {
	m.eventsProcessed.Inc()
}

// IncEventsError increments the events error counter.
func (m *Metrics) IncEventsError() {
	m.eventsError.Inc()
}

// IncUpserts increments the upsert counter for the given outcome
// ("created" or "updated").
func (m *Metrics) IncUpserts(outcome string) {
	m.upserts.WithLabelValues(outcome).Inc()
}

// IncDeletes increments the retraction counter.
func (m *Metrics) IncDeletes() {
	m.deletes.Inc()
}

// ObserveIngestLatency records an event processing duration in seconds.
func (m *Metrics) ObserveIngestLatency(seconds float64) {
	m.ingestLatency.Observe(seconds)
}
