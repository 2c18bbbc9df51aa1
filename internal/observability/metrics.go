package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	TurnsTotal       *prometheus.CounterVec
	RouterFallbacks  prometheus.Counter
	GenerationErrors *prometheus.CounterVec
	TurnLatency      prometheus.Histogram
	WSMessages       *prometheus.CounterVec
	WSWriteErrors    *prometheus.CounterVec
	wsOutbound       *prometheus.CounterVec

	turnStages *turnStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active conversation sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed conversation turns by routed approach.",
		}, []string{"approach"}),
		RouterFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_fallbacks_total",
			Help:      "Turns routed to the default approach because classification degraded.",
		}),
		GenerationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Generation client failures by agent.",
		}, []string{"agent"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end turn latency in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket messages by direction and type.",
		}, []string{"direction", "type"}),
		WSWriteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_write_errors_total",
			Help:      "Websocket write failures by kind.",
		}, []string{"kind"}),
		wsOutbound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_outbound_total",
			Help:      "Outbound websocket enqueue outcomes by message type.",
		}, []string{"type", "outcome"}),
		turnStages: newTurnStageWindow(256),
	}
}

func (m *Metrics) ObserveOutboundMessage(msgType, outcome string) {
	if m == nil {
		return
	}
	m.wsOutbound.WithLabelValues(msgType, outcome).Inc()
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	m.TurnLatency.Observe(float64(d.Milliseconds()))
	m.ObserveTurnStage(StageTurnTotal, d)
}

func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	if m == nil || m.turnStages == nil {
		return
	}
	m.turnStages.Observe(stage, float64(d.Milliseconds()))
}

func (m *Metrics) SnapshotTurnStages() TurnStageSnapshot {
	if m == nil || m.turnStages == nil {
		return TurnStageSnapshot{}
	}
	return m.turnStages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
