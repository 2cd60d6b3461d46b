package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/graphstore/internal/launch"
)

// WelcomeOptions holds flags for the welcome command.
type WelcomeOptions struct {
	*RootOptions
	Settings string
	Dismiss  bool
}

// WelcomeResult reports what the banner did.
type WelcomeResult struct {
	FirstTime bool   `json:"first_time"`
	Shown     bool   `json:"shown"`
	Text      string `json:"text,omitempty"`
	Dismissed bool   `json:"dismissed"`
}

// NewWelcomeCommand creates the welcome command.
func NewWelcomeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WelcomeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "welcome",
		Short: "Show the first-run welcome banner",
		Long: `Print the welcome banner if this is the first run. With --dismiss the
first-time flag is cleared so the banner is not shown again.

The flag lives in the launch settings file (launch.settings_path in the
config, GRAPHSTORE_LAUNCH_SETTINGS in the environment).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWelcome(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Settings, "settings", "", "path to launch settings (default from config)")
	cmd.Flags().BoolVar(&opts.Dismiss, "dismiss", false, "dismiss the banner after showing it")

	return cmd
}

func runWelcome(opts *WelcomeOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := opts.formatter(cmd)

	path := opts.Settings
	if path == "" {
		cfg, err := opts.Config()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		path = cfg.Launch.SettingsPath
	}

	settings := launch.NewFileSettings(path)
	firstTime, err := settings.FirstTime(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read launch settings", err)
	}

	banner := launch.NewBanner(settings)
	result := WelcomeResult{FirstTime: firstTime, Text: banner.Render(firstTime)}
	result.Shown = result.Text != ""

	if opts.Dismiss && result.Shown {
		if err := banner.Dismiss(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to dismiss banner", err)
		}
		result.Dismissed = true
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if result.Shown {
		fmt.Fprintln(w, result.Text)
	}
	if result.Dismissed {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Welcome banner dismissed.")
	}
	return nil
}
