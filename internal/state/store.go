package state

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Listener is called with the committed value after each commit.
// Listeners must treat the value as read-only.
type Listener[S any] func(S)

// Subscription identifies a registered listener. The zero value never
// identifies a listener.
type Subscription uint64

// ListenerErrorHandler observes listener failures.
type ListenerErrorHandler func(*ListenerError)

type snapshot[S any] struct {
	value S
	seq   int64
}

// CommitHook is called once a queued update has been committed, before
// listeners see the value.
type CommitHook[S any] func(value S, seq int64)

type pendingUpdate[S any] struct {
	fn        func(S) S
	committed CommitHook[S]
}

type subscriber[S any] struct {
	id     Subscription
	fn     Listener[S]
	active atomic.Bool
}

// Store is a generic observable container for one value of type S.
//
// Thread-safety model:
//   - GetState, Seq, Subscribe, Unsubscribe: safe from any goroutine
//   - SetState, Update: safe from any goroutine and from inside a listener.
//     If another caller is already draining commits, the write is queued
//     and committed by that caller before it returns.
//
// Listeners run on the goroutine that drains the commit.
type Store[S any] struct {
	current atomic.Pointer[snapshot[S]]
	clock   *Clock
	logger  *slog.Logger
	onError ListenerErrorHandler

	mu       sync.Mutex
	subs     []*subscriber[S]
	nextID   Subscription
	pending  []pendingUpdate[S]
	draining bool

	failures atomic.Int64
}

// Option configures a Store.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	clock   *Clock
	onError ListenerErrorHandler
}

// WithLogger sets the logger used for listener and update failures.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithClock sets the logical clock used to stamp commits.
func WithClock(clock *Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithListenerErrorHandler registers a hook called for every listener panic.
// The hook runs on the draining goroutine; it must not block.
func WithListenerErrorHandler(h ListenerErrorHandler) Option {
	return func(c *config) {
		c.onError = h
	}
}

// New creates a Store seeded by init. init is called exactly once.
// If init fails or panics, New returns an error and no store.
func New[S any](init func() (S, error), opts ...Option) (st *Store[S], err error) {
	if init == nil {
		return nil, ErrNilInit
	}

	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.clock == nil {
		cfg.clock = NewClock()
	}

	defer func() {
		if r := recover(); r != nil {
			st = nil
			err = &InitError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	initial, err := init()
	if err != nil {
		return nil, &InitError{Err: err}
	}

	s := &Store[S]{
		clock:   cfg.clock,
		logger:  cfg.logger,
		onError: cfg.onError,
	}
	s.current.Store(&snapshot[S]{value: initial, seq: cfg.clock.Current()})
	return s, nil
}

// GetState returns the most recently committed value. It never blocks.
func (s *Store[S]) GetState() S {
	return s.current.Load().value
}

// Seq returns the sequence number of the most recent commit.
func (s *Store[S]) Seq() int64 {
	return s.current.Load().seq
}

// ListenerFailures returns the number of listener panics recovered so far.
func (s *Store[S]) ListenerFailures() int64 {
	return s.failures.Load()
}

// Subscribe registers l for all subsequent commits. A nil listener is
// ignored and the zero Subscription is returned.
func (s *Store[S]) Subscribe(l Listener[S]) Subscription {
	if l == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sub := &subscriber[S]{id: s.nextID, fn: l}
	sub.active.Store(true)
	s.subs = append(s.subs, sub)
	return sub.id
}

// Unsubscribe removes the listener registered under id. Unknown or
// already-removed ids are a no-op.
func (s *Store[S]) Unsubscribe(id Subscription) {
	if id == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.subs, func(sub *subscriber[S]) bool { return sub.id == id })
	if i < 0 {
		return
	}
	// A notification pass already holding the old slice skips it.
	s.subs[i].active.Store(false)
	s.subs = slices.Delete(s.subs, i, i+1)
}

// Len returns the number of registered listeners.
func (s *Store[S]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// SetState replaces the stored value wholesale and notifies listeners.
func (s *Store[S]) SetState(next S) {
	s.Update(func(S) S { return next })
}

// Update commits fn applied to the latest committed value. fn must not
// mutate its argument. If fn panics the commit is skipped and logged.
func (s *Store[S]) Update(fn func(S) S) {
	s.UpdateThen(fn, nil)
}

// UpdateThen is Update with a hook that receives the committed value and
// its sequence number. The hook is not called when the commit is skipped.
// For a write queued behind another caller the hook runs on the draining
// goroutine.
func (s *Store[S]) UpdateThen(fn func(S) S, committed CommitHook[S]) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	s.pending = append(s.pending, pendingUpdate[S]{fn: fn, committed: committed})
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	s.drain()
}

// drain applies pending commits in FIFO order until none remain.
// Only one goroutine drains at a time.
func (s *Store[S]) drain() {
	done := false
	defer func() {
		// Let the next writer take over if a commit escaped with a panic.
		if !done {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			done = true
			return
		}
		u := s.pending[0]
		s.pending[0] = pendingUpdate[S]{}
		if len(s.pending) == 1 {
			s.pending = s.pending[:0]
		} else {
			s.pending = s.pending[1:]
		}
		s.mu.Unlock()

		next, ok := s.apply(u.fn, s.current.Load().value)
		if !ok {
			continue
		}

		snap := &snapshot[S]{value: next, seq: s.clock.Next()}
		s.current.Store(snap)

		if u.committed != nil {
			s.guard("commit hook", snap.seq, func() { u.committed(snap.value, snap.seq) })
		}

		// Listeners added after this point wait for the next commit.
		s.mu.Lock()
		subs := slices.Clone(s.subs)
		s.mu.Unlock()

		for _, sub := range subs {
			if !sub.active.Load() {
				continue
			}
			s.notify(sub, snap)
		}
	}
}

func (s *Store[S]) apply(fn func(S) S, prev S) (next S, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state update panicked, commit skipped",
				"panic", r,
				"seq", s.clock.Current())
			ok = false
		}
	}()
	return fn(prev), true
}

func (s *Store[S]) notify(sub *subscriber[S], snap *snapshot[S]) {
	defer func() {
		if r := recover(); r != nil {
			s.failures.Add(1)
			lerr := &ListenerError{Subscription: sub.id, Seq: snap.seq, Panic: r}
			s.logger.Error("listener panicked",
				"subscription", uint64(sub.id),
				"seq", snap.seq,
				"panic", r)
			if s.onError != nil {
				s.guard("listener error handler", snap.seq, func() { s.onError(lerr) })
			}
		}
	}()
	sub.fn(snap.value)
}

// guard runs fn, logging and swallowing a panic.
func (s *Store[S]) guard(what string, seq int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(what+" panicked",
				"seq", seq,
				"panic", r)
		}
	}()
	fn()
}
