package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks outbox relay throughput.
type Metrics struct {
	Published       prometheus.Counter
	PublishFailures prometheus.Counter
}

// New registers the relay metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the relay metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "custody_outbox_published_total",
			Help: "Total number of notifications relayed from the outbox",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "custody_outbox_publish_failures_total",
			Help: "Total number of failed outbox publish attempts",
		}),
	}
}

func (m *Metrics) AddPublished(n int) {
	m.Published.Add(float64(n))
}

func (m *Metrics) IncrementPublishFailures() {
	m.PublishFailures.Inc()
}
