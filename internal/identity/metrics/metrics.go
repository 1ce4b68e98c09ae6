package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for participant onboarding.
type Metrics struct {
	RegistrationRequests  *prometheus.CounterVec
	RegistrationDecisions *prometheus.CounterVec
	ParticipantsEnrolled  prometheus.Counter
}

// New registers the identity metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the identity metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_registration_requests_total",
			Help: "Registration requests by outcome (accepted or the failure code)",
		}, []string{"outcome"}),
		RegistrationDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_registration_decisions_total",
			Help: "Administrator decisions on registration requests",
		}, []string{"decision"}),
		ParticipantsEnrolled: factory.NewCounter(prometheus.CounterOpts{
			Name: "custody_participants_enrolled_total",
			Help: "Participants added to the registry by approval or direct enrollment",
		}),
	}
}

func (m *Metrics) IncrementRequest(outcome string) {
	m.RegistrationRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementDecision(decision string) {
	m.RegistrationDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementEnrolled() {
	m.ParticipantsEnrolled.Inc()
}
