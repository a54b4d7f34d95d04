package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	m := New()
	m.RoomCreated()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.MessageRelayed()
	m.PeerWriteFailed()
	m.SessionTimedOut()

	if got := testutil.ToFloat64(m.roomsCreated); got != 1 {
		t.Fatalf("rooms created = %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsActive); got != 1 {
		t.Fatalf("sessions active = %v", got)
	}
	if got := testutil.ToFloat64(m.peerWriteFailure); got != 1 {
		t.Fatalf("peer write failures = %v", got)
	}
}

func TestHandlerExposesRelayMetrics(t *testing.T) {
	m := New()
	m.MessageRelayed()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, name := range []string{
		"pairchat_messages_relayed_total 1",
		"pairchat_rooms_created_total 0",
		"pairchat_sessions_active 0",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("expected %q in metrics output", name)
		}
	}
}
