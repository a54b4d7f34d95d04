package chat

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitDone(t *testing.T, m *IdleMonitor, within time.Duration) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(within):
		t.Fatalf("monitor did not finish within %v", within)
	}
}

func TestIdleMonitorExpires(t *testing.T) {
	var fired atomic.Int32
	start := time.Now()
	m := NewIdleMonitor(100*time.Millisecond, 20*time.Millisecond, nil, func() {
		fired.Add(1)
	})
	m.Start(context.Background())

	waitDone(t, m, 2*time.Second)
	elapsed := time.Since(start)

	if fired.Load() != 1 {
		t.Fatalf("expected one expiry, got %d", fired.Load())
	}
	if !m.Expired() || m.State() != MonitorExpired {
		t.Fatalf("expected expired state, got %v", m.State())
	}
	if elapsed < 100*time.Millisecond {
		t.Fatalf("expired too early: %v", elapsed)
	}
	if elapsed > 100*time.Millisecond+20*time.Millisecond+300*time.Millisecond {
		t.Fatalf("expired too late: %v", elapsed)
	}
}

func TestIdleMonitorExtendKeepsAlive(t *testing.T) {
	var fired atomic.Int32
	m := NewIdleMonitor(150*time.Millisecond, 20*time.Millisecond, nil, func() {
		fired.Add(1)
	})
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	stop := time.After(600 * time.Millisecond)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ticker.C:
			m.Extend()
		case <-stop:
			break loop
		}
	}

	if fired.Load() != 0 {
		t.Fatal("monitor fired despite regular activity")
	}
	cancel()
	waitDone(t, m, time.Second)
	if m.State() != MonitorStopped {
		t.Fatalf("expected stopped state, got %v", m.State())
	}
	if fired.Load() != 0 {
		t.Fatal("cancel must not fire expiry")
	}
}

func TestIdleMonitorStopsWhenNotAlive(t *testing.T) {
	var alive atomic.Bool
	alive.Store(true)
	var fired atomic.Int32

	m := NewIdleMonitor(time.Second, 10*time.Millisecond, alive.Load, func() {
		fired.Add(1)
	})
	m.Start(context.Background())
	alive.Store(false)

	waitDone(t, m, time.Second)
	if m.State() != MonitorStopped {
		t.Fatalf("expected stopped state, got %v", m.State())
	}
	if fired.Load() != 0 {
		t.Fatal("closed session must not fire expiry")
	}
}

func TestIdleMonitorDeadlineOnlyMovesForward(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewIdleMonitor(5*time.Second, time.Second, nil, nil)
	m.now = func() time.Time { return now }

	m.Extend()
	first := m.Deadline()
	if !first.Equal(now.Add(5 * time.Second)) {
		t.Fatalf("unexpected deadline %v", first)
	}

	now = now.Add(-time.Minute)
	m.Extend()
	if !m.Deadline().Equal(first) {
		t.Fatalf("deadline moved backwards: %v", m.Deadline())
	}

	now = now.Add(2 * time.Minute)
	m.Extend()
	if !m.Deadline().After(first) {
		t.Fatalf("deadline did not advance: %v", m.Deadline())
	}
}

func TestIdleMonitorClampsInterval(t *testing.T) {
	m := NewIdleMonitor(time.Second, 5*time.Second, nil, nil)
	if m.interval != time.Second {
		t.Fatalf("expected interval clamped to timeout, got %v", m.interval)
	}
}
