// Package config loads relay server settings from the environment, an
// optional .env file and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/habibuoy/pairchat/backend/internal/chat"
)

// Config holds server configuration.
type Config struct {
	HTTPAddr          string        `env:"PAIRCHAT_HTTP_ADDR"          envDefault:":7000"`
	DBPath            string        `env:"PAIRCHAT_DB_PATH"`
	IdleTimeout       time.Duration `env:"PAIRCHAT_IDLE_TIMEOUT"       envDefault:"5s"`
	CheckInterval     time.Duration `env:"PAIRCHAT_CHECK_INTERVAL"     envDefault:"1s"`
	QueueBackoff      time.Duration `env:"PAIRCHAT_QUEUE_BACKOFF"      envDefault:"100ms"`
	HeartbeatInterval time.Duration `env:"PAIRCHAT_HEARTBEAT_INTERVAL" envDefault:"1s"`
	MaxMessageBytes   int64         `env:"PAIRCHAT_MAX_MESSAGE_BYTES"  envDefault:"65536"`
	CORSAllow         []string      `env:"PAIRCHAT_CORS_ALLOW"         envDefault:"*" envSeparator:","`
	TLSCert           string        `env:"PAIRCHAT_TLS_CERT"`
	TLSKey            string        `env:"PAIRCHAT_TLS_KEY"`
}

// LoadDotEnv loads variables from the given files into the process
// environment without overriding values that are already set. Missing files
// are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path for room pairings (empty keeps rooms in memory)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "close sessions silent for this long")
	fs.DurationVar(&cfg.CheckInterval, "check-interval", cfg.CheckInterval, "idle deadline polling interval")
	fs.DurationVar(&cfg.QueueBackoff, "queue-backoff", cfg.QueueBackoff, "broadcast wait on an empty queue")
	fs.DurationVar(&cfg.HeartbeatInterval, "heartbeat-interval", cfg.HeartbeatInterval, "heartbeat socket write interval")
	fs.Int64Var(&cfg.MaxMessageBytes, "max-message-bytes", cfg.MaxMessageBytes, "largest accepted message")
	fs.StringVar(&cfg.TLSCert, "tls-cert", cfg.TLSCert, "TLS certificate file")
	fs.StringVar(&cfg.TLSKey, "tls-key", cfg.TLSKey, "TLS key file")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return errors.New("http address is required")
	case c.IdleTimeout <= 0:
		return errors.New("idle timeout must be positive")
	case c.CheckInterval <= 0:
		return errors.New("check interval must be positive")
	case c.CheckInterval > c.IdleTimeout:
		return fmt.Errorf("check interval %v exceeds idle timeout %v", c.CheckInterval, c.IdleTimeout)
	case c.QueueBackoff <= 0:
		return errors.New("queue backoff must be positive")
	case c.HeartbeatInterval <= 0:
		return errors.New("heartbeat interval must be positive")
	case c.MaxMessageBytes <= 0:
		return errors.New("max message bytes must be positive")
	case (c.TLSCert == "") != (c.TLSKey == ""):
		return errors.New("tls cert and key must be set together")
	}
	return nil
}

// Relay returns the relay timings.
func (c Config) Relay() chat.Config {
	return chat.Config{
		IdleTimeout:   c.IdleTimeout,
		CheckInterval: c.CheckInterval,
		QueueBackoff:  c.QueueBackoff,
	}
}

// TLS reports whether the server should serve HTTPS.
func (c Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
