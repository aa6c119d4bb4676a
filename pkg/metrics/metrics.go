// Package metrics holds the prometheus collectors of the session manager and
// the glue server. Collectors register with the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callmanager_sessions_active",
		Help: "Sessions in a non-terminal state",
	})

	StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callmanager_state_transitions_total",
		Help: "Session state transitions by target state",
	}, []string{"state"})

	SessionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callmanager_session_failures_total",
		Help: "Fatal session errors by kind",
	}, []string{"kind"})

	Interruptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmanager_interruptions_total",
		Help: "Responses cancelled because the user spoke",
	})

	ICERestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmanager_ice_restarts_total",
		Help: "ICE restarts requested",
	})

	NegotiationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "callmanager_negotiation_duration_seconds",
		Help:    "Offer creation plus SDP exchange latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 3.0, 5.0, 10.0},
	})

	PlaybackQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callmanager_playback_queue_depth",
		Help: "Audio segments waiting to play",
	})

	ControlMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callmanager_control_messages_total",
		Help: "Control channel messages by direction and type",
	}, []string{"direction", "type"})

	RelayConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callmanager_relay_connections",
		Help: "Open relay websocket connections",
	})

	CallsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callmanager_calls_forwarded_total",
		Help: "SDP offers forwarded by the glue server, by response status",
	}, []string{"status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
