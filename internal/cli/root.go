// Package cli implements the graphstore command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/graphstore/internal/config"
	"github.com/roach88/graphstore/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the graphstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "graphstore",
		Short: "graphstore - client-side graph state mirror",
		Long: `Reduce graph-update event streams into an observable client state.

Replays recorded streams, journals them to SQLite, validates them against
the event schema and runs YAML scenarios.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := opts.Config(); err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			cmd.SetContext(logging.WithLogger(commandContext(cmd), opts.Logger(cmd)))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")

	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewWelcomeCommand(opts))

	return cmd
}

// Config loads the configuration once: --config over the defaults, then
// GRAPHSTORE_* environment overrides.
func (o *RootOptions) Config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// Logger returns the command logger, writing to stderr so that JSON output
// stays clean. --verbose lowers the level to debug.
func (o *RootOptions) Logger(cmd *cobra.Command) *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	level, format := "warn", "text"
	if cfg, err := o.Config(); err == nil {
		level, format = cfg.Logging.Level, cfg.Logging.Format
	}
	if o.Verbose {
		level = "debug"
	}
	o.logger = logging.New(level, format, cmd.ErrOrStderr())
	return o.logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// commandContext returns the command context, which is only nil when a
// subcommand is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
