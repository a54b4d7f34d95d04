package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Heartbeat serves the diagnostic socket: it writes a greeting on a fixed
// cadence and closes the connection once the client stops sending.
type Heartbeat struct {
	Interval      time.Duration
	IdleTimeout   time.Duration
	CheckInterval time.Duration

	log     *slog.Logger
	metrics Recorder
	now     func() time.Time
}

// NewHeartbeat creates a heartbeat handler. rec may be nil.
func NewHeartbeat(interval time.Duration, cfg Config, logger *slog.Logger, rec Recorder) *Heartbeat {
	if interval <= 0 {
		interval = time.Second
	}
	def := DefaultConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Heartbeat{
		Interval:      interval,
		IdleTimeout:   cfg.IdleTimeout,
		CheckInterval: cfg.CheckInterval,
		log:           logger,
		metrics:       recorderOrNop(rec),
		now:           time.Now,
	}
}

// Run blocks until s is closed by the peer, by idleness, or by ctx.
func (h *Heartbeat) Run(ctx context.Context, s *Session) {
	log := h.log.With("member", s.Member())

	monitor := NewIdleMonitor(h.IdleTimeout, h.CheckInterval, s.IsOpen, func() {
		log.Info("session.timeout", "idle", h.IdleTimeout)
		h.metrics.SessionTimedOut()
		_ = s.Close(websocket.CloseProtocolError, reasonIdle)
	})
	s.OnActivity(monitor.Extend)
	monitor.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, s)
	}()

	for s.IsOpen() {
		kind, payload, err := s.Receive()
		switch kind {
		case KindText:
			log.Debug("heartbeat.received", "bytes", len(payload))
		case KindClose:
			code, reason := s.PeerClose()
			if code == 0 || code == websocket.CloseNoStatusReceived {
				code = websocket.CloseNormalClosure
			}
			log.Info("heartbeat.peer_closed", "code", code, "reason", reason)
			_ = s.Close(code, reason)
		case KindError:
			if !errors.Is(err, ErrSessionClosed) {
				log.Info("heartbeat.receive_failed", "err", err)
			}
		}
	}

	<-done
	<-monitor.Done()
	log.Info("heartbeat.ended", "timed_out", monitor.Expired())
}

func (h *Heartbeat) writeLoop(ctx context.Context, s *Session) {
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for s.IsOpen() {
		if err := s.SendText(HeartbeatLine(h.now())); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			_ = s.Close(websocket.CloseGoingAway, reasonShuttingDown)
			return
		case <-ticker.C:
		}
	}
}
