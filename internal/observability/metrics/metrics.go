package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters for the message-processing pipeline.
type ConversationMetrics struct {
	messagesTotal   *prometheus.CounterVec
	recoveryTotal   *prometheus.CounterVec
	bookingsTotal   prometheus.Counter
	persistFailures *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingbot",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Processed messages by detected intent and analysis source",
		}, []string{"intent", "source"}),
		recoveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingbot",
			Subsystem: "conversation",
			Name:      "recovery_total",
			Help:      "Structured-response recovery outcomes by strategy",
		}, []string{"strategy"}),
		bookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookingbot",
			Subsystem: "conversation",
			Name:      "bookings_recorded_total",
			Help:      "Completed bookings handed to the appointment recorder",
		}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingbot",
			Subsystem: "storage",
			Name:      "persist_failures_total",
			Help:      "Swallowed persistence failures by operation",
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.recoveryTotal, m.bookingsTotal, m.persistFailures)
	return m
}

func (m *ConversationMetrics) ObserveMessage(intent, source string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(intent, source).Inc()
}

func (m *ConversationMetrics) ObserveRecovery(strategy string) {
	if m == nil {
		return
	}
	m.recoveryTotal.WithLabelValues(strategy).Inc()
}

func (m *ConversationMetrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookingsTotal.Inc()
}

func (m *ConversationMetrics) ObservePersistFailure(op string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(op).Inc()
}
