package chat

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	defaultWriteWait = 10 * time.Second

	// Maximum message size allowed from peer.
	defaultMaxMessageBytes = 64 * 1024
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// MessageKind classifies the result of Session.Receive.
type MessageKind int

const (
	KindText MessageKind = iota
	KindClose
	KindError
)

// SessionOptions tunes a Session. Zero values select the defaults.
type SessionOptions struct {
	MaxMessageBytes int64
	WriteWait       time.Duration
}

// Session owns one websocket connection bound to a member of a room. It
// turns transport frames into complete text messages and back.
//
// Receive must only be called from one goroutine. SendText and Close are
// safe to call from any goroutine.
type Session struct {
	member string
	roomID string
	conn   *websocket.Conn

	writeWait time.Duration
	state     atomic.Int32

	// writeMu keeps data frames from different broadcasters from interleaving.
	writeMu sync.Mutex

	activity atomic.Pointer[func()]

	closeMu     sync.Mutex
	closeCode   int
	closeReason string
}

// NewSession wraps an established websocket connection.
func NewSession(conn *websocket.Conn, member, roomID string, opts SessionOptions) *Session {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = defaultMaxMessageBytes
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}

	s := &Session{
		member:    member,
		roomID:    roomID,
		conn:      conn,
		writeWait: opts.WriteWait,
	}

	conn.SetReadLimit(opts.MaxMessageBytes)
	conn.SetPingHandler(func(data string) error {
		s.touch()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(s.writeWait))
		if err == nil || errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	})
	conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})
	// The close reply is sent by Close so the handshake runs exactly once.
	conn.SetCloseHandler(func(code int, text string) error {
		s.touch()
		s.closeMu.Lock()
		s.closeCode, s.closeReason = code, text
		s.closeMu.Unlock()
		return nil
	})

	return s
}

// Member returns the identity that owns the session.
func (s *Session) Member() string { return s.member }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// IsOpen reports whether the session is still open.
func (s *Session) IsOpen() bool { return s.State() == StateOpen }

// OnActivity registers fn to be called for every inbound frame, control
// frames included.
func (s *Session) OnActivity(fn func()) {
	if fn == nil {
		s.activity.Store(nil)
		return
	}
	s.activity.Store(&fn)
}

// PeerClose returns the close code and reason sent by the peer, if any.
func (s *Session) PeerClose() (int, string) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closeCode, s.closeReason
}

// Receive blocks until a complete message is available. Fragmented messages
// are reassembled into one payload. A close frame from the peer yields
// KindClose with the peer's reason; any read failure yields KindError and
// leaves the session closed.
func (s *Session) Receive() (MessageKind, string, error) {
	for {
		if !s.IsOpen() {
			return KindError, "", ErrSessionClosed
		}

		typ, r, err := s.conn.NextReader()
		if err != nil {
			return s.receiveFailed(err)
		}
		s.touch()

		payload, err := io.ReadAll(r)
		if err != nil {
			return s.receiveFailed(err)
		}

		switch typ {
		case websocket.TextMessage, websocket.BinaryMessage:
			return KindText, string(payload), nil
		}
	}
}

func (s *Session) receiveFailed(err error) (MessageKind, string, error) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		return KindClose, ce.Text, nil
	}
	if !s.IsOpen() {
		// Closed locally while the read was pending.
		return KindError, "", ErrSessionClosed
	}
	s.abort()
	return KindError, "", newError("receive", s.roomID, s.member, err)
}

// SendText writes payload as a single text frame.
func (s *Session) SendText(payload string) error {
	if !s.IsOpen() {
		return newError("send", s.roomID, s.member, ErrSessionClosed)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		return newError("send", s.roomID, s.member, err)
	}
	return nil
}

// Close performs the closing handshake with the given code and reason and
// releases the connection. Only the first call runs the handshake; later
// calls return ErrSessionClosed.
func (s *Session) Close(code int, reason string) error {
	if !s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return ErrSessionClosed
	}
	defer s.state.Store(int32(StateClosed))

	msg := websocket.FormatCloseMessage(code, reason)
	werr := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeWait))
	cerr := s.conn.Close()

	if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		return newError("close", s.roomID, s.member, werr)
	}
	if cerr != nil {
		return newError("close", s.roomID, s.member, cerr)
	}
	return nil
}

// abort drops the connection without a closing handshake.
func (s *Session) abort() {
	if s.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		_ = s.conn.Close()
	}
}

func (s *Session) touch() {
	if fn := s.activity.Load(); fn != nil {
		(*fn)()
	}
}
