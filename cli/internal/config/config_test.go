package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAIRCHAT_SERVER", "")
	t.Setenv("PAIRCHAT_IDLE_TIMEOUT", "")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != DefaultServer {
		t.Fatalf("expected default server, got %q", cfg.Server)
	}
	if cfg.PingPeriod() != DefaultIdleTimeout/2 {
		t.Fatalf("unexpected ping period %v", cfg.PingPeriod())
	}
	if got := cfg.HeartbeatURL(); got != "ws://localhost:7000/ws" {
		t.Fatalf("unexpected heartbeat url %q", got)
	}
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("PAIRCHAT_SERVER", "https://env.example")
	t.Setenv("PAIRCHAT_IDLE_TIMEOUT", "8s")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != "https://env.example" || cfg.IdleTimeout != 8*time.Second {
		t.Fatalf("expected env values, got %+v", cfg)
	}

	cfg, err = Load(Options{Server: "http://flag.example:9000/", IdleTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != "http://flag.example:9000" || cfg.IdleTimeout != 2*time.Second {
		t.Fatalf("expected flag values, got %+v", cfg)
	}
}

func TestURLs(t *testing.T) {
	cfg, err := Load(Options{Server: "https://chat.example/relay"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.PairURL(); got != "https://chat.example/relay/chat" {
		t.Fatalf("unexpected pair url %q", got)
	}
	if got := cfg.ChatURL("r 1", "alice"); got != "wss://chat.example/relay/wschat?chatRoomId=r+1&user=alice" {
		t.Fatalf("unexpected chat url %q", got)
	}
}

func TestLoadRejectsBadServer(t *testing.T) {
	for _, server := range []string{"ftp://example.com", "http://", "::nonsense"} {
		if _, err := Load(Options{Server: server}); err == nil {
			t.Fatalf("%q: expected error", server)
		}
	}
}
