package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// errSessionEnded stops the deliver flow once the receive flow has returned.
var errSessionEnded = errors.New("session ended")

// Close reasons sent to clients.
const (
	reasonClientLeft   = "Client left the chat"
	reasonIdle         = "Client is disconnected"
	reasonShuttingDown = "Server is shutting down"
)

// Config holds the relay timing parameters.
type Config struct {
	// IdleTimeout is how long a session may stay silent before it is closed.
	IdleTimeout time.Duration

	// CheckInterval is the idle deadline polling cadence.
	CheckInterval time.Duration

	// QueueBackoff bounds how long the broadcast flow waits on an empty queue
	// before re-checking the session state.
	QueueBackoff time.Duration
}

// DefaultConfig returns the timings used by the server when none are configured.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   5 * time.Second,
		CheckInterval: time.Second,
		QueueBackoff:  100 * time.Millisecond,
	}
}

// Relay moves messages between the sessions of a room.
type Relay struct {
	cfg     Config
	log     *slog.Logger
	metrics Recorder
	now     func() time.Time
}

// NewRelay creates a relay. rec may be nil.
func NewRelay(cfg Config, logger *slog.Logger, rec Recorder) *Relay {
	def := DefaultConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.QueueBackoff <= 0 {
		cfg.QueueBackoff = def.QueueBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		cfg:     cfg,
		log:     logger,
		metrics: recorderOrNop(rec),
		now:     time.Now,
	}
}

// Run attaches s to room and relays its messages until the connection ends.
// The join announcement goes to every live session including s; chat lines
// and the leave announcement go to every live session except s.
//
// Run returns an error only when the session could not be attached; the
// caller still owns s in that case.
func (r *Relay) Run(ctx context.Context, s *Session, room *Room) error {
	member := s.Member()
	room.presence.Lock()
	if err := room.AttachSession(member, s); err != nil {
		room.presence.Unlock()
		return err
	}
	r.broadcast(room, nil, JoinAnnouncement(member, r.now()))
	room.presence.Unlock()

	log := r.log.With("room", room.ID(), "member", member)
	r.metrics.SessionOpened()
	log.Info("relay.join")

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	var monitor IdleDetector = NewIdleMonitor(r.cfg.IdleTimeout, r.cfg.CheckInterval, s.IsOpen, func() {
		log.Info("session.timeout", "idle", r.cfg.IdleTimeout)
		r.metrics.SessionTimedOut()
		_ = s.Close(websocket.CloseProtocolError, reasonIdle)
	})
	s.OnActivity(monitor.Extend)
	monitor.Start(monitorCtx)

	defer func() {
		stopMonitor()
		<-monitor.Done()
		s.OnActivity(nil)
		r.leave(room, s, log)
	}()

	queue := NewQueue()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.receive(s, queue, log); err != nil {
			return err
		}
		return errSessionEnded
	})
	g.Go(func() error {
		return r.deliver(gctx, s, room, queue, log)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, errSessionEnded) {
		log.Info("relay.session_ended", "err", err)
	}
	return nil
}

// receive reads messages from s and queues the non-empty ones.
func (r *Relay) receive(s *Session, queue *Queue, log *slog.Logger) error {
	for s.IsOpen() {
		kind, payload, err := s.Receive()
		switch kind {
		case KindClose:
			log.Debug("relay.peer_closed", "reason", payload)
			_ = s.Close(websocket.CloseNormalClosure, reasonClientLeft)
			return nil
		case KindError:
			if errors.Is(err, ErrSessionClosed) {
				return nil
			}
			return err
		case KindText:
			if payload == "" {
				continue
			}
			queue.Push(payload)
		}
	}
	return nil
}

// deliver broadcasts queued messages to the other sessions of the room.
// It stops when s closes or ctx is done; messages still queued at that point
// are flushed before returning.
func (r *Relay) deliver(ctx context.Context, s *Session, room *Room, queue *Queue, log *slog.Logger) error {
	member := s.Member()
	backoff := time.NewTimer(r.cfg.QueueBackoff)
	defer backoff.Stop()

	for s.IsOpen() && ctx.Err() == nil {
		payload, ok := queue.TryPop()
		if ok {
			r.broadcast(room, s, ChatLine(member, payload))
			continue
		}

		if !backoff.Stop() {
			select {
			case <-backoff.C:
			default:
			}
		}
		backoff.Reset(r.cfg.QueueBackoff)

		select {
		case <-ctx.Done():
		case <-queue.Ready():
		case <-backoff.C:
		}
	}
	if ctx.Err() != nil {
		// No-op when the receive flow already closed s.
		_ = s.Close(websocket.CloseGoingAway, reasonShuttingDown)
	}

	if n := queue.Len(); n > 0 {
		log.Debug("relay.flush", "pending", n)
	}
	for {
		payload, ok := queue.TryPop()
		if !ok {
			return nil
		}
		r.broadcast(room, s, ChatLine(member, payload))
	}
}

// broadcast writes text to every live session of room except from. A peer
// that fails the write is logged and skipped.
func (r *Relay) broadcast(room *Room, from Peer, text string) int {
	delivered := 0
	for _, peer := range room.LiveSessions() {
		if from != nil && peer == from {
			continue
		}
		if err := peer.SendText(text); err != nil {
			r.metrics.PeerWriteFailed()
			r.log.Info("relay.peer_write_failed", "room", room.ID(), "peer", peer.Member(), "err", err)
			continue
		}
		delivered++
	}
	if delivered > 0 {
		r.metrics.MessageRelayed()
	}
	return delivered
}

// leave detaches s and announces the departure. It runs exactly once per
// Run, whichever flow ended the session. A session already replaced by a
// reconnect of the same member is dropped silently.
func (r *Relay) leave(room *Room, s Peer, log *slog.Logger) {
	room.presence.Lock()
	if err := room.release(s); err != nil {
		log.Info("relay.superseded", "err", err)
	} else {
		r.broadcast(room, s, LeaveAnnouncement(s.Member(), r.now()))
	}
	room.presence.Unlock()
	r.metrics.SessionClosed()
	log.Info("relay.leave")
}
