package metrics

import (
	"sync"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "careassist"

// Metrics records fallback chain activity. It satisfies ai.Observer.
type Metrics struct {
	Attempts  *prometheus.CounterVec
	Latency   *prometheus.HistogramVec
	Exhausted *prometheus.CounterVec
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide metrics registered on the default registry.
func Global() *Metrics {
	once.Do(func() {
		global = New(prometheus.DefaultRegisterer)
	})
	return global
}

// New builds and registers a metrics set on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Total provider attempts by feature, provider and outcome",
		}, []string{"feature", "provider", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_attempt_duration_seconds",
			Help:      "Duration of single provider attempts",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider"}),
		Exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_exhausted_total",
			Help:      "Total fallback chains that ended without a usable response",
		}, []string{"feature"}),
	}
	reg.MustRegister(m.Attempts, m.Latency, m.Exhausted)
	return m
}

func (m *Metrics) Attempted(feature string, a ai.Attempt) {
	m.Attempts.WithLabelValues(feature, string(a.Provider), string(a.Outcome)).Inc()
	m.Latency.WithLabelValues(string(a.Provider)).Observe(a.Latency.Seconds())
}

// Record counts exhausted chains. It satisfies ai.Recorder so it can sit beside the ingestor.
func (m *Metrics) Record(gen *ai.Generation) {
	if gen.Exhausted {
		m.Exhausted.WithLabelValues(gen.Feature).Inc()
	}
}
