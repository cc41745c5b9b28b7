package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/cohabs/stripesync/cmd/stripesync/cmd/check"
	"github.com/cohabs/stripesync/cmd/stripesync/cmd/sync"
	"github.com/cohabs/stripesync/cmd/stripesync/cmd/version"
	"github.com/cohabs/stripesync/pkg/logging"
)

// Execute runs the stripesync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "stripesync",
		Short:   "Reconcile cohabs users, rooms and leases with Stripe",
		Version: a.version,
		Long: `stripesync checks that every user, room and lease of the cohabs database
is linked to a live Stripe customer, product and subscription, and recreates
the missing ones.

Run without a command for the interactive menu.`,
		PersistentPreRunE: a.setupCommand,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sync.Interactive(cmd.Context(), a)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	c := a.config
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&c.NoColor, "no-color", c.NoColor, "disable colored output")
	flags.StringVarP(&c.Format, "format", "o", c.Format, "output format: table, json, yaml")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVar(&c.ReportDir, "report-dir", c.ReportDir, "directory receiving report files")
	flags.StringVar(&c.ReportFormat, "report-format", c.ReportFormat, "report file format: text, markdown, xlsx")
	flags.StringVar(&c.CheckMode, "check-mode", c.CheckMode, "link check: probe each link or compare against one listing")
	flags.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "maximum concurrent Stripe calls")
	flags.BoolVar(&c.IdempotencyKeys, "idempotency-keys", c.IdempotencyKeys, "send an idempotency key derived from the local id on create")
	flags.BoolVar(&c.ActiveOnly, "active-only", c.ActiveOnly, "reconcile active users only")

	rootCmd.SetVersionTemplate("stripesync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs. Flags are bound to the
// config directly, so only the logger needs rebuilding.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	logger := NewLogger(a.config, a.err)
	a.logger = &logger
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(sync.NewCommand(a))
	rootCmd.AddCommand(check.NewCommand(a))
	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
