package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MonitorState is the state of an IdleMonitor.
type MonitorState int32

const (
	MonitorActive MonitorState = iota
	MonitorExpired
	MonitorStopped
)

// IdleDetector is the narrow surface the relay needs from an idle timeout
// implementation.
type IdleDetector interface {
	Start(ctx context.Context)
	Extend()
	Done() <-chan struct{}
}

// IdleMonitor declares a session idle after a period without observed
// activity. It polls the deadline on a fixed cadence; Extend pushes the
// deadline forward and never moves it back.
type IdleMonitor struct {
	timeout  time.Duration
	interval time.Duration
	alive    func() bool
	onExpire func()
	now      func() time.Time

	deadline atomic.Int64 // unix nanoseconds
	state    atomic.Int32

	startOnce sync.Once
	done      chan struct{}
}

// NewIdleMonitor creates a monitor that calls onExpire once the session has
// been silent for timeout. Polling stops without firing as soon as alive
// returns false.
func NewIdleMonitor(timeout, interval time.Duration, alive func() bool, onExpire func()) *IdleMonitor {
	if interval <= 0 || interval > timeout {
		interval = timeout
	}
	if alive == nil {
		alive = func() bool { return true }
	}
	return &IdleMonitor{
		timeout:  timeout,
		interval: interval,
		alive:    alive,
		onExpire: onExpire,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start sets the first deadline and begins polling in a new goroutine.
// Cancelling ctx stops the monitor without firing.
func (m *IdleMonitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.Extend()
		go m.run(ctx)
	})
}

// Extend moves the deadline to now plus the timeout.
func (m *IdleMonitor) Extend() {
	next := m.now().Add(m.timeout).UnixNano()
	for {
		current := m.deadline.Load()
		if next <= current {
			return
		}
		if m.deadline.CompareAndSwap(current, next) {
			return
		}
	}
}

// Deadline returns the current expiry time.
func (m *IdleMonitor) Deadline() time.Time {
	return time.Unix(0, m.deadline.Load())
}

// State returns the monitor state.
func (m *IdleMonitor) State() MonitorState {
	return MonitorState(m.state.Load())
}

// Done is closed once the monitor has expired or stopped.
func (m *IdleMonitor) Done() <-chan struct{} {
	return m.done
}

// Expired reports whether the monitor fired.
func (m *IdleMonitor) Expired() bool {
	return m.State() == MonitorExpired
}

func (m *IdleMonitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if !m.alive() {
			m.state.CompareAndSwap(int32(MonitorActive), int32(MonitorStopped))
			return
		}
		if !m.now().Before(m.Deadline()) {
			if m.state.CompareAndSwap(int32(MonitorActive), int32(MonitorExpired)) && m.onExpire != nil {
				m.onExpire()
			}
			return
		}

		select {
		case <-ctx.Done():
			m.state.CompareAndSwap(int32(MonitorActive), int32(MonitorStopped))
			return
		case <-ticker.C:
		}
	}
}
