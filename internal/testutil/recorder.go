package testutil

import "sync"

// Recorder captures every value passed to its Listener.
// Use it as a store subscriber:
//
//	rec := testutil.NewRecorder[graph.State]()
//	store.Subscribe(rec.Listener())
type Recorder[S any] struct {
	mu     sync.Mutex
	values []S
}

// NewRecorder creates an empty recorder.
func NewRecorder[S any]() *Recorder[S] {
	return &Recorder[S]{}
}

// Listener returns a callback that records its argument.
func (r *Recorder[S]) Listener() func(S) {
	return func(v S) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.values = append(r.values, v)
	}
}

// Count returns the number of recorded values.
func (r *Recorder[S]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Values returns a copy of the recorded values in arrival order.
func (r *Recorder[S]) Values() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]S, len(r.values))
	copy(out, r.values)
	return out
}

// Last returns the most recent value and whether one exists.
func (r *Recorder[S]) Last() (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero S
	if len(r.values) == 0 {
		return zero, false
	}
	return r.values[len(r.values)-1], true
}
