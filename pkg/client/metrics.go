package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks runtime counters for observability. All record
// methods are nil-safe so components can run without metrics attached.
type Metrics struct {
	dispatchedActions *prometheus.CounterVec
	connectAttempts   prometheus.Counter
	connectFailures   prometheus.Counter
	connectionState   prometheus.Gauge
	pushEvents        prometheus.Counter
}

// NewMetrics creates and registers the runtime metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatchedActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voclink_dispatched_actions_total",
			Help: "Actions applied by the dispatcher, by action type",
		}, []string{"type"}),
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voclink_connect_attempts_total",
			Help: "Transport connection attempts, including retries",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voclink_connect_failures_total",
			Help: "Failed transport connection attempts",
		}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voclink_connection_state",
			Help: "Current connection state (0=disconnected, 1=connecting, 2=authenticating, 3=ready, 4=reconnecting, 5=logging_out)",
		}),
		pushEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voclink_push_events_total",
			Help: "Server push events received",
		}),
	}

	reg.MustRegister(m.dispatchedActions, m.connectAttempts, m.connectFailures, m.connectionState, m.pushEvents)
	return m
}

// RecordDispatch counts an applied action
func (m *Metrics) RecordDispatch(actionType string) {
	if m == nil {
		return
	}
	m.dispatchedActions.WithLabelValues(actionType).Inc()
}

// RecordConnectAttempt counts a transport connection attempt
func (m *Metrics) RecordConnectAttempt() {
	if m == nil {
		return
	}
	m.connectAttempts.Inc()
}

// RecordConnectFailure counts a failed connection attempt
func (m *Metrics) RecordConnectFailure() {
	if m == nil {
		return
	}
	m.connectFailures.Inc()
}

// RecordConnectionState publishes the current connection state
func (m *Metrics) RecordConnectionState(state ConnectionState) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(state))
}

// RecordPushEvent counts a received server push event
func (m *Metrics) RecordPushEvent() {
	if m == nil {
		return
	}
	m.pushEvents.Inc()
}
