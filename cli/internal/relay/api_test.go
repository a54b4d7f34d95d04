package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/habibuoy/pairchat/cli/internal/config"
)

func testConfig(t *testing.T, server string) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.Options{Server: server})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req["sender"] == "" || req["recipient"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Please provide a valid room chat request."}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"","result":{"id":"room-42"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(t, srv.URL))
	id, err := client.Pair(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if id != "room-42" {
		t.Fatalf("expected room-42, got %q", id)
	}

	_, err = client.Pair(context.Background(), "alice", "")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	var relayErr *Error
	if !errors.As(err, &relayErr) || relayErr.Details != "Please provide a valid room chat request." {
		t.Fatalf("expected server message in details, got %v", err)
	}
}

func TestPairServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(t, srv.URL)).Pair(context.Background(), "alice", "bob")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestPairUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(testConfig(t, url)).Pair(context.Background(), "alice", "bob")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
}
