package cli

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/graphstore/internal/dispatch"
	"github.com/roach88/graphstore/internal/graph"
	"github.com/roach88/graphstore/internal/journal"
	"github.com/roach88/graphstore/internal/metrics"
	"github.com/roach88/graphstore/internal/state"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Database string
	Metrics  bool
}

// IngestResult summarises one ingest run.
type IngestResult struct {
	Source        string       `json:"source"`
	Database      string       `json:"database"`
	Read          int          `json:"read"`
	Rejected      []string     `json:"rejected,omitempty"`
	Processed     int64        `json:"processed"`
	Ignored       int64        `json:"ignored"`
	JournalErrors int64        `json:"journal_errors"`
	Journaled     int          `json:"journaled"`
	LastSeq       int64        `json:"last_seq"`
	State         stateSummary `json:"state"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <events-file>",
		Short: "Dispatch an event file through a store with the journal attached",
		Long: `Dispatch every event in a file through a fresh store, appending each one
to the SQLite journal before it is reduced.

Sequence numbers continue from the last journaled event. Unknown kinds are
journaled and ignored by the reducer; malformed bodies are rejected before
dispatch. Journal failures are logged and do not stop ingestion.

The database defaults to journal.path from the config (GRAPHSTORE_DB).

Examples:
  graphstore ingest ./events.jsonl --db ./graphstore.db
  graphstore ingest ./events.yaml --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after ingesting")

	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Journal.Path
	}

	loaded, err := loadEventFile(path)
	if err != nil {
		return err
	}
	for _, r := range loaded.Rejected {
		logger.Warn("rejected event", "error", r)
	}

	j, err := journal.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer j.Close()

	lastSeq, err := j.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	before, err := j.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	formatter.VerboseLog("Journal %s has %d record(s), last seq %d", dbPath, before, lastSeq)

	registry := prometheus.NewRegistry()
	m := metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace), metrics.WithRegistry(registry))

	store, d, err := reduceAll(ctx, loaded.Events, logger,
		[]graph.Option{graph.WithObserver(m)},
		dispatch.WithJournal(j),
		dispatch.WithIDGenerator(dispatch.UUIDv7Generator{}),
		dispatch.WithClock(state.NewClockAt(lastSeq)),
		dispatch.WithRecorder(m),
		dispatch.WithSource(filepath.Base(path)),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "ingest failed", err)
	}

	after, err := j.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	newLast, err := j.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	summary, err := summarize(store.GetState())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarise state", err)
	}

	stats := d.Stats()
	result := IngestResult{
		Source:        path,
		Database:      dbPath,
		Read:          len(loaded.Events) + len(loaded.Rejected),
		Rejected:      loaded.Rejected,
		Processed:     stats.Processed,
		Ignored:       stats.Ignored,
		JournalErrors: stats.JournalErrors,
		Journaled:     after - before,
		LastSeq:       newLast,
		State:         summary,
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Ingested %s into %s\n", path, dbPath)
	fmt.Fprintf(w, "  Read: %d, processed: %d, ignored: %d, rejected: %d\n",
		result.Read, result.Processed, result.Ignored, len(result.Rejected))
	fmt.Fprintf(w, "  Journaled: %d (last seq %d, %d errors)\n", result.Journaled, result.LastSeq, result.JournalErrors)
	fmt.Fprintf(w, "  Keys: %d, digest: %s\n", len(summary.Keys), summary.Digest)

	if opts.Metrics {
		fmt.Fprintln(w)
		families, err := registry.Gather()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
				return err
			}
		}
	}
	return nil
}
