package session

import "github.com/prometheus/client_golang/prometheus"

var (
	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "editor_sessions_active",
		Help: "Editor sessions with a connected client",
	})
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editor_messages_total",
			Help: "Client messages handled by editor sessions",
		},
		[]string{"type"},
	)
	historySnapshots = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "editor_history_snapshots_total",
		Help: "History snapshots recorded across all sessions",
	})
)

// Collectors returns the session metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{activeSessions, messagesTotal, historySnapshots}
}
