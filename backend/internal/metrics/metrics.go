// Package metrics exposes relay counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/habibuoy/pairchat/backend/internal/chat"
)

// Metrics records relay events. It implements chat.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	roomsCreated     prometheus.Counter
	sessionsActive   prometheus.Gauge
	messagesRelayed  prometheus.Counter
	peerWriteFailure prometheus.Counter
	sessionTimeouts  prometheus.Counter
}

// New creates the relay collectors on a private registry along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairchat_rooms_created_total",
			Help: "Rooms created by pairing requests.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pairchat_sessions_active",
			Help: "Websocket chat sessions currently attached to a room.",
		}),
		messagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairchat_messages_relayed_total",
			Help: "Messages and announcements delivered to at least one session.",
		}),
		peerWriteFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairchat_peer_write_failures_total",
			Help: "Broadcast writes that failed for a single peer.",
		}),
		sessionTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairchat_session_timeouts_total",
			Help: "Sessions closed by the idle monitor.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.roomsCreated,
		m.sessionsActive,
		m.messagesRelayed,
		m.peerWriteFailure,
		m.sessionTimeouts,
	)
	return m
}

// Handler exposes the metrics at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RoomCreated()     { m.roomsCreated.Inc() }
func (m *Metrics) SessionOpened()   { m.sessionsActive.Inc() }
func (m *Metrics) SessionClosed()   { m.sessionsActive.Dec() }
func (m *Metrics) SessionTimedOut() { m.sessionTimeouts.Inc() }
func (m *Metrics) MessageRelayed()  { m.messagesRelayed.Inc() }
func (m *Metrics) PeerWriteFailed() { m.peerWriteFailure.Inc() }

var _ chat.Recorder = (*Metrics)(nil)
