package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/graphstore/internal/graph"
	"github.com/roach88/graphstore/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Kind     string
	After    int64
	Limit    int
}

// TraceRecord is one journaled event in trace output.
type TraceRecord struct {
	Seq    int64           `json:"seq"`
	ID     string          `json:"id"`
	Kind   string          `json:"kind"`
	Known  bool            `json:"known"`
	Source string          `json:"source,omitempty"`
	Digest string          `json:"digest"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// TraceResult holds the timeline and journal statistics.
type TraceResult struct {
	Records []TraceRecord  `json:"records"`
	Total   int            `json:"total"`
	LastSeq int64          `json:"last_seq"`
	Kinds   map[string]int `json:"kinds"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the journal timeline",
		Long: `Print journaled events in sequence order together with per-kind counts.

Kinds the reducer does not understand are marked with "?". With --verbose
the canonical body of each event is printed as well.

Examples:
  graphstore trace --db ./graphstore.db
  graphstore trace --db ./graphstore.db --kind add-nodes --limit 20
  graphstore trace --db ./graphstore.db --after 100 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show events of this kind")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only show events with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events to show (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := opts.formatter(cmd)

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be non-negative")
	}

	dbPath := opts.Database
	if dbPath == "" {
		cfg, err := opts.Config()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		dbPath = cfg.Journal.Path
	}

	j, err := openExistingJournal(dbPath)
	if err != nil {
		return err
	}
	defer j.Close()

	records, err := j.List(ctx, journal.Filter{Kind: opts.Kind, AfterSeq: opts.After, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list events", err)
	}
	total, err := j.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}
	lastSeq, err := j.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read last seq", err)
	}
	kinds, err := j.Kinds(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count kinds", err)
	}

	result := TraceResult{
		Records: make([]TraceRecord, 0, len(records)),
		Total:   total,
		LastSeq: lastSeq,
		Kinds:   kinds,
	}
	for _, r := range records {
		result.Records = append(result.Records, TraceRecord{
			Seq:    r.Seq,
			ID:     r.ID,
			Kind:   r.Kind,
			Known:  isKnownKind(r.Kind),
			Source: r.Source,
			Digest: r.Digest,
			Body:   json.RawMessage(r.Body),
		})
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	outputTraceText(cmd, result, opts.Verbose)
	return nil
}

func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No events in journal.")
		return
	}

	fmt.Fprintf(w, "Journal: %d event(s), last seq %d\n\n", result.Total, result.LastSeq)
	for _, r := range result.Records {
		marker := " "
		if !r.Known {
			marker = "?"
		}
		fmt.Fprintf(w, "%s [%d] %-16s %s %s\n", marker, r.Seq, r.Kind, r.ID, shortDigest(r.Digest))
		if verbose {
			fmt.Fprintf(w, "      %s\n", r.Body)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Kinds:")
	kinds := make([]string, 0, len(result.Kinds))
	for k := range result.Kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", k, result.Kinds[k])
	}
}

func isKnownKind(kind string) bool {
	return slices.Contains(graph.Kinds, kind)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
