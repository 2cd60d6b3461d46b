package dispatch

import (
	"sync"

	"github.com/roach88/graphstore/internal/graph"
)

// Envelope is a stamped event waiting in the queue.
type Envelope struct {
	ID     string
	Seq    int64
	Source string
	Event  graph.Event
}

// envelopeQueue is a thread-safe unbounded FIFO.
//
// Unbounded so that a subscriber reacting to a commit can enqueue more
// events without deadlocking the loop that is notifying it.
//
// The signal channel enables context-aware waiting in Run.
type envelopeQueue struct {
	mu     sync.Mutex
	items  []Envelope
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEnvelopeQueue() *envelopeQueue {
	return &envelopeQueue{
		items:  make([]Envelope, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// push stamps and appends under the queue lock so that seq order equals
// FIFO order. Returns false if the queue is closed.
func (q *envelopeQueue) push(stamp func() Envelope) (Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return Envelope{}, false
	}

	env := stamp()
	q.items = append(q.items, env)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return env, true
}

// TryDequeue removes the front envelope without blocking.
func (q *envelopeQueue) TryDequeue() (Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Envelope{}, false
	}

	env := q.items[0]

	// Clear the slot so the backing array does not retain the event.
	q.items[0] = Envelope{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return env, true
}

// Wait returns a channel that signals when envelopes may be available.
// It is closed when the queue is closed.
func (q *envelopeQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *envelopeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops further enqueues and wakes waiters.
func (q *envelopeQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
