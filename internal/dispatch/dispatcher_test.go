package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphstore/internal/graph"
	"github.com/roach88/graphstore/internal/journal"
	"github.com/roach88/graphstore/internal/state"
)

var resA = graph.Resource{Ship: "~zod", Name: "a"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *graph.Store) {
	t.Helper()
	store, err := graph.NewStore(graph.WithLogger(quietLogger()))
	require.NoError(t, err)
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithIDGenerator(NewSequentialGenerator("evt")),
		WithClock(state.NewClock()),
	}, opts...)
	return New(store, opts...), store
}

type failingAppender struct{ calls int }

func (f *failingAppender) Append(context.Context, journal.Record) (bool, error) {
	f.calls++
	return false, errors.New("disk full")
}

type countingRecorder struct {
	mu            sync.Mutex
	journalErrors int
	depths        []int
}

func (r *countingRecorder) JournalError() { r.mu.Lock(); r.journalErrors++; r.mu.Unlock() }
func (r *countingRecorder) QueueDepth(n int) {
	r.mu.Lock()
	r.depths = append(r.depths, n)
	r.mu.Unlock()
}

func TestDispatcher_DrainInOrder(t *testing.T) {
	d, store := newTestDispatcher(t)

	env, ok := d.EnqueueEnvelope(graph.AddGraphEvent{Resource: resA})
	require.True(t, ok)
	assert.Equal(t, "evt-0001", env.ID)
	assert.Equal(t, int64(1), env.Seq)

	require.True(t, d.Enqueue(graph.RemoveGraphEvent{Resource: resA}))
	require.True(t, d.Enqueue(graph.AddGraphEvent{Resource: resA}))

	require.NoError(t, d.Drain(context.Background()))

	assert.True(t, store.GetState().HasKey(resA), "add, remove, add leaves the graph present")
	stats := d.Stats()
	assert.Equal(t, int64(3), stats.Enqueued)
	assert.Equal(t, int64(3), stats.Processed)
	assert.Equal(t, 0, stats.Pending)
}

func TestDispatcher_UnknownCountedAsIgnored(t *testing.T) {
	d, store := newTestDispatcher(t)
	d.Enqueue(graph.UnknownEvent{Type: "archive-graph"})
	d.Enqueue(graph.SidebarEvent{})
	require.NoError(t, d.Drain(context.Background()))

	assert.Equal(t, int64(1), d.Stats().Ignored)
	assert.False(t, store.GetState().SidebarShown)
	assert.Equal(t, int64(1), store.Seq(), "unknown event produced no commit")
}

func TestDispatcher_JournalAppendFirst(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	d, _ := newTestDispatcher(t, WithJournal(j), WithSource("test.jsonl"))
	d.Enqueue(graph.AddGraphEvent{Resource: resA})
	d.Enqueue(graph.UnknownEvent{Type: "archive-graph", Body: []byte(`{"resource":{"ship":"~zod","name":"a"}}`)})
	require.NoError(t, d.Drain(context.Background()))

	records, err := j.List(context.Background(), journal.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "evt-0001", records[0].ID)
	assert.Equal(t, graph.KindAddGraph, records[0].Kind)
	assert.Equal(t, "test.jsonl", records[0].Source)
	assert.Equal(t, `{"graph":{},"resource":{"name":"a","ship":"~zod"}}`, string(records[0].Body))
	assert.Equal(t, "archive-graph", records[1].Kind, "unknown events are journaled for audit")
}

func TestDispatcher_JournalFailureLogAndContinue(t *testing.T) {
	app := &failingAppender{}
	rec := &countingRecorder{}
	d, store := newTestDispatcher(t, WithJournal(app), WithRecorder(rec))

	d.Enqueue(graph.AddGraphEvent{Resource: resA})
	require.NoError(t, d.Drain(context.Background()))

	assert.True(t, store.GetState().HasKey(resA), "store stays live when the journal fails")
	assert.Equal(t, 1, app.calls)
	assert.Equal(t, int64(1), d.Stats().JournalErrors)
	assert.Equal(t, 1, rec.journalErrors)
	assert.NotEmpty(t, rec.depths)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	d, store := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Enqueue(graph.AddGraphEvent{Resource: resA})
	require.Eventually(t, func() bool { return store.GetState().HasKey(resA) }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, d.Enqueue(graph.SidebarEvent{}), "cancel closes the queue")
}

func TestDispatcher_RunReturnsNilOnClose(t *testing.T) {
	d, store := newTestDispatcher(t)
	for i := 0; i < 10; i++ {
		d.Enqueue(graph.SidebarEvent{})
	}
	d.Close()

	require.NoError(t, d.Run(context.Background()))
	assert.True(t, store.GetState().SidebarShown, "ten toggles return to shown")
	assert.Equal(t, int64(10), d.Stats().Processed)
}

func TestDispatcher_ConcurrentProducers(t *testing.T) {
	d, store := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	const producers = 10
	const per = 20
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				d.Enqueue(graph.AddNodesEvent{
					Resource: resA,
					Nodes: []graph.IndexedNode{{
						Index: graph.Index{graph.Atom(strconv.Itoa(p*per + i + 1))},
						Node:  &graph.Node{Post: graph.Post{Author: "~zod"}},
					}},
				})
			}
		}(p)
	}
	wg.Wait()
	d.Close()

	require.NoError(t, <-done)
	assert.Equal(t, producers*per, store.GetState().Graph(resA).Len())
}

func TestDispatcher_SubscriberMayEnqueue(t *testing.T) {
	d, store := newTestDispatcher(t)
	resB := graph.Resource{Ship: "~zod", Name: "b"}
	store.Subscribe(func(s graph.State) {
		if s.HasKey(resA) && !s.HasKey(resB) {
			d.Enqueue(graph.AddGraphEvent{Resource: resB})
		}
	})

	d.Enqueue(graph.AddGraphEvent{Resource: resA})
	require.NoError(t, d.Drain(context.Background()))

	assert.True(t, store.GetState().HasKey(resB))
}

func TestDispatcher_DrainHonoursContext(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Enqueue(graph.SidebarEvent{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Drain(ctx), context.Canceled)
	assert.Equal(t, 1, d.Stats().Pending)
}
