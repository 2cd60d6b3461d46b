package cli

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/graphstore/internal/eventfile"
	"github.com/roach88/graphstore/internal/graph"
)

//go:embed schema/events.cue
var eventSchemaSource string

// eventSchema compiles the embedded schema once per process.
var eventSchema = sync.OnceValues(func() (cue.Value, error) {
	v := cuecontext.New().CompileString(eventSchemaSource, cue.Filename("events.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile event schema: %w", err)
	}
	return v, nil
})

// EventError describes one invalid event.
type EventError struct {
	Line     int      `json:"line"`
	Kind     string   `json:"kind"`
	Messages []string `json:"messages"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool         `json:"valid"`
	Events  int          `json:"events"`
	Unknown []string     `json:"unknown,omitempty"`
	Errors  []EventError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <events-file>",
		Short: "Validate an event file against the event schema",
		Long: `Check every event body in a file against the embedded CUE schema and the
decoder that the store uses.

Bodies are closed: unexpected fields are errors. Kinds the reducer does not
understand are listed but are not errors, since producers may be newer than
this client.

Exit codes:
  0 - All events valid
  1 - One or more events invalid
  2 - Command error (file not found, unreadable file)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	schema, err := eventSchema()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid embedded schema", err)
	}

	entries, err := eventfile.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	formatter.VerboseLog("Found %d event(s) in %s", len(entries), path)

	result := ValidationResult{Valid: true, Events: len(entries)}
	for _, e := range entries {
		if !isKnownKind(e.Kind) {
			result.Unknown = append(result.Unknown, fmt.Sprintf("%d:%s", e.Line, e.Kind))
			continue
		}
		if msgs := validateEntry(schema, e); len(msgs) > 0 {
			result.Valid = false
			result.Errors = append(result.Errors, EventError{Line: e.Line, Kind: e.Kind, Messages: msgs})
		}
	}

	if formatter.IsJSON() {
		if !result.Valid {
			if err := formatter.Failure(ErrCodeInvalidEvents, fmt.Sprintf("%d invalid event(s)", len(result.Errors)), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "validation failed")
		}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, u := range result.Unknown {
		fmt.Fprintf(w, "? %s (unknown kind, ignored by the reducer)\n", u)
	}
	for _, ee := range result.Errors {
		fmt.Fprintf(w, "✗ %d:%s\n", ee.Line, ee.Kind)
		for _, m := range ee.Messages {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
	if !result.Valid {
		fmt.Fprintf(w, "✗ %d of %d event(s) invalid\n", len(result.Errors), result.Events)
		return NewExitError(ExitFailure, "validation failed")
	}
	fmt.Fprintf(w, "✓ %d event(s) valid\n", result.Events)
	return nil
}

// validateEntry checks one known-kind entry against the schema and then
// the decoder. Returns nil when both accept it.
func validateEntry(schema cue.Value, e eventfile.Entry) []string {
	var msgs []string

	body := []byte(e.Body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	def := schema.LookupPath(cue.MakePath(cue.Str("kinds"), cue.Str(e.Kind)))
	data := schema.Context().CompileBytes(body, cue.Filename(fmt.Sprintf("event-%d.json", e.Line)))
	if err := data.Err(); err != nil {
		msgs = append(msgs, cueMessages(err)...)
	} else if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		msgs = append(msgs, cueMessages(err)...)
	}

	if _, err := graph.Decode(e.Kind, e.Body); err != nil {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func cueMessages(err error) []string {
	var out []string
	for _, e := range cueerrors.Errors(err) {
		out = append(out, e.Error())
	}
	if len(out) == 0 {
		out = append(out, err.Error())
	}
	return out
}
