package openai

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for API calls.
// A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// Collectors already registered by another client are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatkit",
			Subsystem: "openai",
			Name:      "requests_total",
			Help:      "API calls by operation and HTTP status.",
		}, []string{"op", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatkit",
			Subsystem: "openai",
			Name:      "request_duration_seconds",
			Help:      "Time until response headers, by operation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"op"}),
	}
	if reg == nil {
		return m
	}
	m.requests = registerOrReuse(reg, m.requests)
	m.latency = registerOrReuse(reg, m.latency)
	return m
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// Collectors returns the underlying collectors, e.g. for a custom registry.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency}
}

func (m *Metrics) observe(op, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, status).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}
