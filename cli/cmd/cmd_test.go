package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/habibuoy/pairchat/cli/internal/ui"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prev := ui.Output
	ui.Output = &out
	t.Cleanup(func() {
		ui.Output = prev
		flagServer, flagIdleTimeout, flagRoom = "", "", ""
	})

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPairCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"","result":{"id":"room-99"}}`))
	}))
	defer srv.Close()

	out, err := execute(t, "pair", "--server", srv.URL, "alice", "bob")
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	for _, want := range []string{"room-99", "alice", "bob"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPairCommandRequiresTwoNames(t *testing.T) {
	if _, err := execute(t, "pair", "alice"); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestChatCommandRequiresPeerOrRoom(t *testing.T) {
	_, err := execute(t, "chat", "--server", "http://127.0.0.1:1", "alice")
	if err == nil || !strings.Contains(err.Error(), "--room") {
		t.Fatalf("expected missing peer error, got %v", err)
	}
}

func TestInvalidIdleTimeout(t *testing.T) {
	_, err := execute(t, "pair", "--idle-timeout", "soon", "alice", "bob")
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "pairchat ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestPingRejectsNonPositiveInterval(t *testing.T) {
	t.Cleanup(func() { flagPingEvery = time.Second })
	_, err := execute(t, "ping", "--server", "http://127.0.0.1:1", "--every", "0s")
	if err == nil || !strings.Contains(err.Error(), "--every") {
		t.Fatalf("expected interval error, got %v", err)
	}
}
