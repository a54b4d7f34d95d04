package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultServer      = "http://localhost:7000"
	DefaultIdleTimeout = 5 * time.Second
)

// Config holds client configuration
type Config struct {
	// Server is the relay base URL, http or https.
	Server string

	// IdleTimeout is the server's idle timeout; the client pings at half of it.
	IdleTimeout time.Duration

	base *url.URL
}

// Options for loading config with CLI flag overrides
type Options struct {
	Server      string
	IdleTimeout time.Duration
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	// Load server: CLI flag > env > default
	server := strings.TrimSpace(opts.Server)
	if server == "" {
		server = strings.TrimSpace(os.Getenv("PAIRCHAT_SERVER"))
	}
	if server == "" {
		server = DefaultServer
	}
	server = strings.TrimRight(server, "/")

	base, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", server, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q must use http or https", server)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("server URL %q has no host", server)
	}

	// Load idle timeout: CLI flag > env > default
	idle := opts.IdleTimeout
	if idle <= 0 {
		if v := os.Getenv("PAIRCHAT_IDLE_TIMEOUT"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("invalid PAIRCHAT_IDLE_TIMEOUT %q: %w", v, err)
			}
			idle = d
		}
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	return &Config{Server: server, IdleTimeout: idle, base: base}, nil
}

// PairURL returns the pairing endpoint.
func (c *Config) PairURL() string {
	return c.Server + "/chat"
}

// ChatURL returns the websocket URL for user's session in roomID.
func (c *Config) ChatURL(roomID, user string) string {
	q := url.Values{}
	q.Set("chatRoomId", roomID)
	q.Set("user", user)
	return c.websocketURL("/wschat", q)
}

// HeartbeatURL returns the websocket URL of the heartbeat socket.
func (c *Config) HeartbeatURL() string {
	return c.websocketURL("/ws", nil)
}

// PingPeriod is how often an idle chat connection pings the server.
func (c *Config) PingPeriod() time.Duration {
	return c.IdleTimeout / 2
}

func (c *Config) websocketURL(path string, q url.Values) string {
	u := *c.base
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}
