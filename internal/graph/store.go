package graph

import (
	"log/slog"

	"github.com/roach88/graphstore/internal/state"
)

// Observer receives reduction telemetry. metrics.Metrics implements it.
type Observer interface {
	EventReduced(kind string)
	EventIgnored(kind string)
	Committed(seq int64)
	ListenerFailed()
}

// Store is the graph-specific observable store. Reduce is its only
// mutation entry point.
type Store struct {
	st       *state.Store[State]
	reduce   Reducer
	logger   *slog.Logger
	observer Observer
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	reducer  Reducer
	logger   *slog.Logger
	clock    *state.Clock
	observer Observer
	onError  state.ListenerErrorHandler
}

// WithReducer replaces the default reducer.
func WithReducer(r Reducer) Option {
	return func(c *storeConfig) {
		c.reducer = r
	}
}

// WithLogger sets the logger for the store and its default reducer.
func WithLogger(l *slog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = l
	}
}

// WithClock sets the logical clock that stamps commits.
func WithClock(clock *state.Clock) Option {
	return func(c *storeConfig) {
		c.clock = clock
	}
}

// WithObserver attaches reduction telemetry.
func WithObserver(o Observer) Option {
	return func(c *storeConfig) {
		c.observer = o
	}
}

// WithListenerErrorHandler observes subscriber panics.
func WithListenerErrorHandler(h state.ListenerErrorHandler) Option {
	return func(c *storeConfig) {
		c.onError = h
	}
}

// NewStore creates a Store seeded with InitialState.
func NewStore(opts ...Option) (*Store, error) {
	cfg := storeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.reducer == nil {
		cfg.reducer = NewReducer(cfg.logger)
	}

	stOpts := []state.Option{state.WithLogger(cfg.logger)}
	if cfg.clock != nil {
		stOpts = append(stOpts, state.WithClock(cfg.clock))
	}
	obs := cfg.observer
	onError := cfg.onError
	stOpts = append(stOpts, state.WithListenerErrorHandler(func(e *state.ListenerError) {
		if obs != nil {
			obs.ListenerFailed()
		}
		if onError != nil {
			onError(e)
		}
	}))

	st, err := state.New(func() (State, error) { return InitialState(), nil }, stOpts...)
	if err != nil {
		return nil, err
	}

	return &Store{
		st:       st,
		reduce:   cfg.reducer,
		logger:   cfg.logger,
		observer: obs,
	}, nil
}

// Reduce applies e to the current state and commits the result. Unknown
// events are dropped without a commit. Reduce never fails.
func (s *Store) Reduce(e Event) {
	kind := KindOf(e)
	if !IsKnown(e) {
		s.logger.Warn("ignoring unknown graph event", "kind", kind)
		if s.observer != nil {
			s.observer.EventIgnored(kind)
		}
		return
	}

	s.st.UpdateThen(func(cur State) State {
		return s.reduce(cur, e)
	}, func(_ State, seq int64) {
		s.logger.Debug("graph event reduced", "kind", kind, "seq", seq)
		if s.observer != nil {
			s.observer.EventReduced(kind)
			s.observer.Committed(seq)
		}
	})
}

// GetState returns the most recently committed state. It never blocks.
func (s *Store) GetState() State {
	return s.st.GetState()
}

// Subscribe registers l for every subsequent commit.
func (s *Store) Subscribe(l state.Listener[State]) state.Subscription {
	return s.st.Subscribe(l)
}

// Unsubscribe removes a listener. Unknown handles are a no-op.
func (s *Store) Unsubscribe(id state.Subscription) {
	s.st.Unsubscribe(id)
}

// Seq returns the sequence number of the most recent commit.
func (s *Store) Seq() int64 {
	return s.st.Seq()
}

// ListenerFailures returns the number of recovered listener panics.
func (s *Store) ListenerFailures() int64 {
	return s.st.ListenerFailures()
}
