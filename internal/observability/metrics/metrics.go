package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for booking-service operations and
// scheduling-provider failures.
type BookingMetrics struct {
	operationsTotal *prometheus.CounterVec
	providerErrors  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acmedental",
			Subsystem: "booking",
			Name:      "operations_total",
			Help:      "Total booking service operations by outcome",
		}, []string{"operation", "outcome"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acmedental",
			Subsystem: "booking",
			Name:      "provider_errors_total",
			Help:      "Total Calendly provider errors by kind",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.providerErrors)
	return m
}

func (m *BookingMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *BookingMetrics) ObserveProviderError(kind string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(kind).Inc()
}

// AgentMetrics counts planner tool invocations.
type AgentMetrics struct {
	toolInvocations *prometheus.CounterVec
}

func NewAgentMetrics(reg prometheus.Registerer) *AgentMetrics {
	m := &AgentMetrics{
		toolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acmedental",
			Subsystem: "agent",
			Name:      "tool_invocations_total",
			Help:      "Total tool invocations dispatched by the planner",
		}, []string{"tool"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.toolInvocations)
	return m
}

func (m *AgentMetrics) ObserveToolInvocation(tool string) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool).Inc()
}
