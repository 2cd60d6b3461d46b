package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/graphstore/internal/dispatch"
	"github.com/roach88/graphstore/internal/graph"
	"github.com/roach88/graphstore/internal/state"
	"github.com/roach88/graphstore/internal/testutil"
)

// Run executes a scenario against a fresh store and evaluates its
// assertions. The returned error is reserved for harness failures; failed
// assertions are reported in Result.
//
// Runs are deterministic: seqs start at 1 and event IDs are evt-0001,
// evt-0002, ... so the result can be compared with a golden file.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	// Rejected and ignored events log warnings by design; keep test output clean.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := graph.NewStore(graph.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	recorder := testutil.NewRecorder[graph.State]()
	store.Subscribe(recorder.Listener())

	d := dispatch.New(store,
		dispatch.WithClock(state.NewClock()),
		dispatch.WithIDGenerator(dispatch.NewSequentialGenerator("evt")),
		dispatch.WithLogger(logger),
		dispatch.WithSource("harness:"+scenario.Name),
	)

	result := NewResult()

	for i, step := range scenario.Events {
		entry, err := step.Entry(i + 1)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		evt, err := graph.Decode(entry.Kind, entry.Body)
		if err != nil {
			result.Rejected = append(result.Rejected, fmt.Sprintf("events[%d]: %v", i, err))
			continue
		}
		env, ok := d.EnqueueEnvelope(evt)
		if !ok {
			return nil, fmt.Errorf("events[%d]: dispatcher closed", i)
		}
		status := StatusReduced
		if !graph.IsKnown(evt) {
			status = StatusIgnored
		}
		result.Trace = append(result.Trace, TraceEvent{
			Seq:    env.Seq,
			ID:     env.ID,
			Kind:   graph.KindOf(evt),
			Status: status,
		})
	}

	if err := d.Drain(ctx); err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	d.Close()

	result.Final = store.GetState()
	result.Notifications = recorder.Count()
	result.Digest, err = graph.Digest(result.Final)
	if err != nil {
		return nil, fmt.Errorf("digest final state: %w", err)
	}

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}
