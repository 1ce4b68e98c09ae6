package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the custody ledger.
type Metrics struct {
	ItemsRegistered  prometheus.Counter
	Transfers        *prometheus.CounterVec
	TransferDuration prometheus.Histogram
}

// New registers the custody metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the custody metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "custody_items_registered_total",
			Help: "Items added to the ledger",
		}),
		Transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_transfers_total",
			Help: "Custody transfers by outcome (transferred or the failure code)",
		}, []string{"outcome"}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "custody_transfer_duration_seconds",
			Help:    "Time to validate and commit a custody transfer",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementItemsRegistered() {
	m.ItemsRegistered.Inc()
}

func (m *Metrics) IncrementTransfer(outcome string) {
	m.Transfers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTransferDuration(d time.Duration) {
	m.TransferDuration.Observe(d.Seconds())
}
