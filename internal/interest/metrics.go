package interest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricInteractionsTotal = "interactions_recorded_total"
	MetricProfileRows       = "interest_profile_rows"
)

// Metrics contains Prometheus metrics for the interest accumulator.
// All operations are thread-safe.
type Metrics struct {
	interactionsTotal *prometheus.CounterVec
	profileRows       prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		interactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricInteractionsTotal,
				Help: "Total number of interactions recorded by type",
			},
			[]string{"type"},
		),
		profileRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricProfileRows,
				Help: "Current number of interest profile rows",
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.interactionsTotal,
		m.profileRows,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncInteractions increments the recorded interactions counter for a type.
func (m *Metrics) IncInteractions(interactionType string) {
	m.interactionsTotal.WithLabelValues(interactionType).Inc()
}

// SetProfileRows sets the interest profile row gauge.
func (m *Metrics) SetProfileRows(n float64) {
	m.profileRows.Set(n)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.interactionsTotal, m.profileRows}
}
