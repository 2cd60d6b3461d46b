package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/graphstore/internal/dispatch"
	"github.com/roach88/graphstore/internal/graph"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult holds the replay summary.
type ReplayResult struct {
	Source        string       `json:"source"`
	Events        int          `json:"events"`
	Ignored       int64        `json:"ignored"`
	Rejected      []string     `json:"rejected,omitempty"`
	State         stateSummary `json:"state"`
	SecondDigest  string       `json:"second_digest"`
	Deterministic bool         `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [events-file]",
		Short: "Replay an event stream and verify determinism",
		Long: `Replay an event file or a journal through two fresh stores and compare
the digests of the final states.

Prints the final keys, node counts, sidebar flag and digest. Unknown event
kinds are counted as ignored; malformed bodies are listed as rejected.

Exit codes:
  0 - Replay is deterministic
  1 - The two replays produced different states
  2 - Command error (file or database not found, etc.)

Examples:
  graphstore replay ./events.jsonl
  graphstore replay --db ./graphstore.db
  graphstore replay ./events.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runReplay(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "replay a journal instead of an events file")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd)

	var (
		loaded *loadedEvents
		err    error
	)
	switch {
	case path != "" && opts.Database != "":
		return NewExitError(ExitCommandError, "give either an events file or --db, not both")
	case path != "":
		loaded, err = loadEventFile(path)
	case opts.Database != "":
		loaded, err = loadJournal(ctx, opts.Database)
	default:
		return NewExitError(ExitCommandError, "an events file or --db is required")
	}
	if err != nil {
		return err
	}
	formatter.VerboseLog("Loaded %d event(s) from %s", len(loaded.Events), loaded.Source)

	first, d, err := reduceAll(ctx, loaded.Events, logger, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "first replay failed", err)
	}
	second, _, err := reduceAll(ctx, loaded.Events, logger, nil, dispatch.WithSource("replay-check"))
	if err != nil {
		return WrapExitError(ExitCommandError, "second replay failed", err)
	}

	summary, err := summarize(first.GetState())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarise state", err)
	}
	secondDigest, err := graph.Digest(second.GetState())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to digest second replay", err)
	}

	result := ReplayResult{
		Source:        loaded.Source,
		Events:        len(loaded.Events),
		Ignored:       d.Stats().Ignored,
		Rejected:      loaded.Rejected,
		State:         summary,
		SecondDigest:  secondDigest,
		Deterministic: summary.Digest == secondDigest,
	}

	if formatter.IsJSON() {
		if !result.Deterministic {
			if err := formatter.Failure(ErrCodeDeterminism, "determinism verification failed", result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return formatter.Success(result)
	}

	outputReplayText(cmd, result, opts.Verbose)
	if !result.Deterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %s\n", result.Source)
	fmt.Fprintf(w, "  Events: %d (%d ignored, %d rejected)\n", result.Events, result.Ignored, len(result.Rejected))
	fmt.Fprintf(w, "  Keys: %d\n", len(result.State.Keys))
	for _, k := range result.State.Keys {
		fmt.Fprintf(w, "    %s (%d nodes)\n", k, result.State.Nodes[k])
	}
	fmt.Fprintf(w, "  Sidebar shown: %t\n", result.State.SidebarShown)
	fmt.Fprintf(w, "  Digest: %s\n", result.State.Digest)

	if verbose {
		for _, r := range result.Rejected {
			fmt.Fprintf(w, "  Rejected: %s\n", r)
		}
	}
	fmt.Fprintln(w)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Replay verified deterministic")
		return
	}
	fmt.Fprintf(w, "✗ Determinism verification failed (second digest %s)\n", result.SecondDigest)
}
