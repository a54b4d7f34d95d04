package chat

import "sync"

// Queue is an unbounded FIFO of outbound payloads. Push never blocks.
type Queue struct {
	mu    sync.Mutex
	items []string
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends payload to the tail of the queue.
func (q *Queue) Push(payload string) {
	q.mu.Lock()
	q.items = append(q.items, payload)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the head of the queue.
func (q *Queue) TryPop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}
	payload := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return payload, true
}

// Ready receives a value after a Push. It is a wake-up hint only; callers
// must still check TryPop.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of pending payloads.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
