// Package server exposes the pairing API and the websocket endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/habibuoy/pairchat/backend/internal/chat"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	MaxMessageBytes int64
	CORSAllow       []string
	TLSCert         string
	TLSKey          string
}

// Server serves the relay over HTTP.
type Server struct {
	log       *slog.Logger
	registry  *chat.Registry
	relay     *chat.Relay
	heartbeat *chat.Heartbeat
	metrics   http.Handler

	cors        *cors.Cors
	upgrader    websocket.Upgrader
	sessionOpts chat.SessionOptions
	tlsCert     string
	tlsKey      string

	// sockets counts upgraded connections, which Shutdown does not track.
	sockets sync.WaitGroup
}

// New creates a server. metrics may be nil to disable /metrics.
func New(opts Options, logger *slog.Logger, registry *chat.Registry, relay *chat.Relay, heartbeat *chat.Heartbeat, metrics http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 64 * 1024
	}
	if len(opts.CORSAllow) == 0 {
		opts.CORSAllow = []string{"*"}
	}
	return &Server{
		log:       logger,
		registry:  registry,
		relay:     relay,
		heartbeat: heartbeat,
		metrics:   metrics,
		cors: cors.New(cors.Options{
			AllowedOrigins: opts.CORSAllow,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		}),
		upgrader: websocket.Upgrader{
			ReadBufferSize: 4 * 1024,
			// Large enough that every relayed message goes out as one frame.
			WriteBufferSize: int(opts.MaxMessageBytes) + 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessionOpts: chat.SessionOptions{MaxMessageBytes: opts.MaxMessageBytes},
		tlsCert:     opts.TLSCert,
		tlsKey:      opts.TLSKey,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
// Open websocket sessions observe the cancellation through their request
// context and close with a going-away code.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		if s.tlsCert != "" {
			s.log.Info("server.listening", "addr", ln.Addr().String(), "scheme", "https")
			errCh <- srv.ServeTLS(ln, s.tlsCert, s.tlsKey)
			return
		}
		s.log.Info("server.listening", "addr", ln.Addr().String(), "scheme", "http")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("server.shutdown.start")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("server.shutdown.http", "err", err)
	}

	done := make(chan struct{})
	go func() {
		s.sockets.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		s.log.Warn("server.shutdown.sockets_timeout")
	}

	s.log.Info("server.shutdown.complete")
	return nil
}
