package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/habibuoy/pairchat/cli/internal/dns"
)

const (
	writeWait      = 10 * time.Second
	closeGrace     = time.Second
	maxMessageSize = 64 * 1024
)

// Conn is a text websocket connection to the relay.
type Conn struct {
	conn       *websocket.Conn
	pingPeriod time.Duration

	incoming chan string
	outgoing chan string
	done     chan struct{}
	readDone chan struct{}

	closeOnce sync.Once

	mu      sync.Mutex
	readErr error
}

// DialOptions tunes Dial.
type DialOptions struct {
	// PingPeriod is how often a ping is sent to keep the session alive.
	// Zero disables pings.
	PingPeriod time.Duration
}

// Dial connects to a relay websocket URL.
func Dial(ctx context.Context, url string, opts DialOptions) (*Conn, error) {
	dialer := &websocket.Dialer{
		NetDialContext:   dns.DialContext,
		HandshakeTimeout: 10 * time.Second,
		WriteBufferSize:  maxMessageSize + 1024,
	}

	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, WrapError("connect", ErrRejected, resp.Status)
		}
		return nil, WrapError("connect", ErrServer, err.Error())
	}
	ws.SetReadLimit(maxMessageSize)

	c := &Conn{
		conn:       ws,
		pingPeriod: opts.PingPeriod,
		incoming:   make(chan string, 16),
		outgoing:   make(chan string, 16),
		done:       make(chan struct{}),
		readDone:   make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// readPump reads messages from the WebSocket connection.
func (c *Conn) readPump() {
	defer func() {
		close(c.incoming)
		close(c.readDone)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
		select {
		case c.incoming <- string(data):
		case <-c.done:
			return
		}
	}
}

// writePump writes messages to the WebSocket connection and sends periodic pings.
func (c *Conn) writePump() {
	var tick <-chan time.Time
	if c.pingPeriod > 0 {
		ticker := time.NewTicker(c.pingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.conn.Close()

	for {
		select {
		case text := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				return
			}

		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.readDone:
			return

		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			// Let the server answer the close before dropping the connection.
			select {
			case <-c.readDone:
			case <-time.After(closeGrace):
			}
			return
		}
	}
}

// Send queues text for delivery.
func (c *Conn) Send(text string) error {
	select {
	case <-c.done:
		return NewError("send", ErrClosed)
	case <-c.readDone:
		return NewError("send", ErrClosed)
	default:
	}
	select {
	case c.outgoing <- text:
		return nil
	case <-c.done:
		return NewError("send", ErrClosed)
	case <-c.readDone:
		return NewError("send", ErrClosed)
	}
}

// Incoming returns the channel for receiving messages. It is closed when the
// connection ends.
func (c *Conn) Incoming() <-chan string {
	return c.incoming
}

// CloseStatus returns the close code and reason sent by the server once
// Incoming has been closed. ok is false if the connection ended without a
// close frame.
func (c *Conn) CloseStatus() (code int, reason string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ce *websocket.CloseError
	if errors.As(c.readErr, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// Close starts the closing handshake. It is safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Wait blocks until the connection has fully ended.
func (c *Conn) Wait() {
	<-c.readDone
}
