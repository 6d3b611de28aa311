package metrics

import "github.com/prometheus/client_golang/prometheus"

// Event outcomes recorded by the reconciler.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeDropped   = "dropped"
	OutcomeInvalid   = "invalid"
	OutcomeUnknown   = "unknown"
)

// RealtimeMetrics counts how push events and refreshes were reconciled.
type RealtimeMetrics struct {
	eventsTotal   *prometheus.CounterVec
	refreshTotal  *prometheus.CounterVec
	wsConnections prometheus.Gauge
}

func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	m := &RealtimeMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Push events by name and reconciliation outcome",
		}, []string{"event", "outcome"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "realtime",
			Name:      "refresh_total",
			Help:      "Full refreshes by collection and outcome",
		}, []string{"collection", "outcome"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Subsystem: "realtime",
			Name:      "websocket_connections",
			Help:      "Open dashboard websocket connections",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.refreshTotal, m.wsConnections)
	return m
}

func (m *RealtimeMetrics) ObserveEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(event, outcome).Inc()
}

func (m *RealtimeMetrics) ObserveRefresh(collection string, applied bool) {
	if m == nil {
		return
	}
	outcome := "applied"
	if !applied {
		outcome = "stale"
	}
	m.refreshTotal.WithLabelValues(collection, outcome).Inc()
}

func (m *RealtimeMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *RealtimeMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}
