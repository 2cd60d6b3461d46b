package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/graphstore/internal/dispatch"
	"github.com/roach88/graphstore/internal/eventfile"
	"github.com/roach88/graphstore/internal/graph"
	"github.com/roach88/graphstore/internal/journal"
)

// loadedEvents is an event file or journal decoded for dispatch.
type loadedEvents struct {
	Source   string
	Events   []graph.Event
	Rejected []string
}

// loadEventFile reads and decodes an event file. Entries that fail to
// decode are kept as rejections; a missing or unreadable file is a command
// error.
func loadEventFile(path string) (*loadedEvents, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("events file not found: %s", path))
	}
	entries, err := eventfile.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read events", err)
	}
	events, errs := eventfile.Decode(entries)
	return &loadedEvents{Source: path, Events: events, Rejected: errorStrings(errs)}, nil
}

// loadJournal decodes every journaled record in replay order.
func loadJournal(ctx context.Context, path string) (*loadedEvents, error) {
	j, err := openExistingJournal(path)
	if err != nil {
		return nil, err
	}
	defer j.Close()

	out := &loadedEvents{Source: path}
	err = j.Replay(ctx, func(r journal.Record) error {
		evt, err := graph.Decode(r.Kind, r.Body)
		if err != nil {
			out.Rejected = append(out.Rejected, fmt.Sprintf("seq %d (%s): %v", r.Seq, r.ID, err))
			return nil
		}
		out.Events = append(out.Events, evt)
		return nil
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	return out, nil
}

// openExistingJournal opens a journal that must already exist. Opening a
// missing path would silently create an empty database.
func openExistingJournal(path string) (*journal.Journal, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return j, nil
}

// reduceAll feeds events through a fresh store and dispatcher and returns
// the store once the queue is drained.
func reduceAll(ctx context.Context, events []graph.Event, logger *slog.Logger, storeOpts []graph.Option, dispatchOpts ...dispatch.Option) (*graph.Store, *dispatch.Dispatcher, error) {
	store, err := graph.NewStore(append([]graph.Option{graph.WithLogger(logger)}, storeOpts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	opts := append([]dispatch.Option{
		dispatch.WithLogger(logger),
		dispatch.WithIDGenerator(dispatch.NewSequentialGenerator("evt")),
	}, dispatchOpts...)
	d := dispatch.New(store, opts...)

	for _, evt := range events {
		if !d.Enqueue(evt) {
			return nil, nil, fmt.Errorf("dispatcher closed")
		}
	}
	if err := d.Drain(ctx); err != nil {
		return nil, nil, fmt.Errorf("drain: %w", err)
	}
	d.Close()
	return store, d, nil
}

// stateSummary is the printable view of a final state.
type stateSummary struct {
	Keys         []string       `json:"keys"`
	Nodes        map[string]int `json:"nodes"`
	SidebarShown bool           `json:"sidebar_shown"`
	Digest       string         `json:"digest"`
}

func summarize(s graph.State) (stateSummary, error) {
	digest, err := graph.Digest(s)
	if err != nil {
		return stateSummary{}, fmt.Errorf("digest state: %w", err)
	}
	out := stateSummary{
		Keys:         []string{},
		Nodes:        map[string]int{},
		SidebarShown: s.SidebarShown,
		Digest:       digest,
	}
	for _, r := range s.SortedKeys() {
		out.Keys = append(out.Keys, r.String())
		out.Nodes[r.String()] = s.Graph(r).Size()
	}
	return out, nil
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
