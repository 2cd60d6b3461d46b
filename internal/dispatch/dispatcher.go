package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/graphstore/internal/graph"
	"github.com/roach88/graphstore/internal/journal"
	"github.com/roach88/graphstore/internal/state"
)

// Appender is the part of journal.Journal the dispatcher needs.
type Appender interface {
	Append(ctx context.Context, r journal.Record) (bool, error)
}

// Recorder receives dispatcher telemetry. metrics.Metrics implements it.
type Recorder interface {
	JournalError()
	QueueDepth(n int)
}

// Stats is a point-in-time view of dispatcher counters.
type Stats struct {
	Enqueued      int64
	Processed     int64
	Ignored       int64
	JournalErrors int64
	Pending       int
}

// Dispatcher is the single-writer loop in front of a graph.Store.
//
// Thread-safety model:
//   - Enqueue(), Stats(), Close(): safe from any goroutine
//   - Run() / Drain(): must be called from exactly one goroutine at a time
type Dispatcher struct {
	store    *graph.Store
	queue    *envelopeQueue
	clock    Clock
	ids      IDGenerator
	journal  Appender
	recorder Recorder
	logger   *slog.Logger
	source   string

	enqueued      atomic.Int64
	processed     atomic.Int64
	ignored       atomic.Int64
	journalErrors atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithJournal appends every envelope to j before it is reduced.
func WithJournal(j Appender) Option {
	return func(d *Dispatcher) {
		d.journal = j
	}
}

// WithIDGenerator sets the event ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Dispatcher) {
		d.ids = g
	}
}

// WithClock sets the seq source. Default: a fresh state.Clock.
func WithClock(c Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithRecorder attaches telemetry.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithSource labels journal records, e.g. with an input file name.
func WithSource(source string) Option {
	return func(d *Dispatcher) {
		d.source = source
	}
}

// New creates a dispatcher feeding store.
func New(store *graph.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		queue:  newEnvelopeQueue(),
		clock:  state.NewClock(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue stamps evt and adds it to the queue. Safe from any goroutine,
// including store subscribers. Returns false after Close.
func (d *Dispatcher) Enqueue(evt graph.Event) bool {
	_, ok := d.EnqueueEnvelope(evt)
	return ok
}

// EnqueueEnvelope is Enqueue returning the stamped envelope.
func (d *Dispatcher) EnqueueEnvelope(evt graph.Event) (Envelope, bool) {
	env, ok := d.queue.push(func() Envelope {
		return Envelope{
			ID:     d.ids.Generate(),
			Seq:    d.clock.Next(),
			Source: d.source,
			Event:  evt,
		}
	})
	if !ok {
		return Envelope{}, false
	}
	d.enqueued.Add(1)
	d.reportDepth()
	return env, true
}

// Run processes envelopes until ctx is cancelled or the dispatcher is
// closed and drained. Returns ctx.Err() on cancellation, nil on close.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher starting")

	for {
		env, ok := d.queue.TryDequeue()
		if ok {
			d.process(ctx, env)
			continue
		}

		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping: context cancelled")
			d.queue.Close()
			return ctx.Err()

		case <-d.queue.Wait():
			// The signal channel is closed on Close, so this fires
			// immediately once closed.
			if d.queue.Len() == 0 && d.isClosed() {
				d.logger.Info("dispatcher stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain processes everything queued, including envelopes enqueued while
// draining, then returns. Used by CLIs and tests in place of Run.
func (d *Dispatcher) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		env, ok := d.queue.TryDequeue()
		if !ok {
			return nil
		}
		d.process(ctx, env)
	}
}

// Close stops accepting events. Run returns once the queue is empty.
func (d *Dispatcher) Close() {
	d.queue.Close()
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued:      d.enqueued.Load(),
		Processed:     d.processed.Load(),
		Ignored:       d.ignored.Load(),
		JournalErrors: d.journalErrors.Load(),
		Pending:       d.queue.Len(),
	}
}

func (d *Dispatcher) isClosed() bool {
	d.queue.mu.Lock()
	defer d.queue.mu.Unlock()
	return d.queue.closed
}

// process journals then reduces one envelope.
// Called only from the Run/Drain goroutine.
func (d *Dispatcher) process(ctx context.Context, env Envelope) {
	if d.journal != nil {
		if err := d.append(ctx, env); err != nil {
			// Log and continue: the store stays live when the journal does not.
			d.journalErrors.Add(1)
			if d.recorder != nil {
				d.recorder.JournalError()
			}
			logEnvelopeError(d.logger, env, err)
		}
	}

	if !graph.IsKnown(env.Event) {
		d.ignored.Add(1)
	}
	d.store.Reduce(env.Event)
	d.processed.Add(1)
	d.reportDepth()
}

func (d *Dispatcher) append(ctx context.Context, env Envelope) error {
	kind, body, err := graph.Encode(env.Event)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	rec, err := journal.NewRecord(env.ID, env.Seq, kind, body)
	if err != nil {
		return err
	}
	rec.Source = env.Source
	if _, err := d.journal.Append(ctx, rec); err != nil {
		return err
	}
	return nil
}

func (d *Dispatcher) reportDepth() {
	if d.recorder != nil {
		d.recorder.QueueDepth(d.queue.Len())
	}
}

func logEnvelopeError(logger *slog.Logger, env Envelope, err error) {
	logger.Error("journal append failed",
		"event_id", env.ID,
		"seq", env.Seq,
		"kind", graph.KindOf(env.Event),
		"error", err)
}
