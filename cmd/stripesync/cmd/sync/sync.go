// Package sync provides the sync command: it reconciles one family or all
// of them against Stripe, prints the stats and writes the report file.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cohabs/stripesync/internal/appcontext"
	"github.com/cohabs/stripesync/internal/cmd/output"
	"github.com/cohabs/stripesync/internal/events"
	"github.com/cohabs/stripesync/internal/families"
	"github.com/cohabs/stripesync/internal/report"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/logging"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// TargetAll runs every family in order.
const TargetAll = "all"

// Flags holds the sync command flags.
type Flags struct {
	Commit bool
	Yes    bool
}

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync [users|rooms|leases|all]",
		GroupID: "core",
		Short:   "Create missing Stripe customers, products and subscriptions",
		Long: `Sync classifies every user, room and lease against Stripe and recreates
the customers, products and subscriptions that are missing or broken.

Without a family the command runs interactively: it asks whether to run in
commit mode, then offers a menu of families.

Runs are dry by default: nothing is created and nothing is written to the
database. --commit asks for confirmation unless -y is given.`,
		Example: `  stripesync sync                    # Interactive menu
  stripesync sync users              # Dry run for users
  stripesync sync all --commit       # Commit every family after confirmation
  stripesync sync leases --commit -y # Commit leases without prompting`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: append(append([]string{}, families.Names...), TargetAll),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return Interactive(cmd.Context(), app)
			}
			return Execute(cmd.Context(), app, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.Commit, "commit", false, "create missing links (default is a dry run)")
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "skip the commit confirmation")

	return cmd
}

// Interactive prompts for commit mode and a menu entry, then runs it.
func Interactive(ctx context.Context, app appcontext.Interface) error {
	agent := report.NewAgent(app.Out())
	prompter := NewPrompter(app.In(), app.Out())

	agent.Report(ctx, startEvent())

	commit, err := prompter.Confirm(CommitQuestion)
	if err != nil {
		return err
	}
	if commit {
		agent.Report(ctx, attentionEvent())
	}

	choice, err := prompter.Choose("Select command to execute", Menu)
	if err != nil {
		return err
	}
	if choice.Target == "" {
		app.Logger().Info().Msg("Execution cancelled")
		return nil
	}

	return Run(ctx, app, agent, choice.Target, commit)
}

// Execute runs target non-interactively. Commit mode is confirmed unless
// flags.Yes is set.
func Execute(ctx context.Context, app appcontext.Interface, target string, flags *Flags) error {
	target, err := resolveTarget(target)
	if err != nil {
		return err
	}

	agent := report.NewAgent(app.Out())
	agent.Report(ctx, startEvent())

	commit := flags.Commit
	if commit && !flags.Yes {
		if commit, err = NewPrompter(app.In(), app.Out()).Confirm(CommitQuestion); err != nil {
			return err
		}
	}
	if commit {
		agent.Report(ctx, attentionEvent())
	}

	return Run(ctx, app, agent, target, commit)
}

// Run reconciles target, prints the summary, writes the report file and
// publishes one event per family. A driver-level failure writes the
// ".error" report and is returned.
func Run(ctx context.Context, app appcontext.Interface, agent *report.Agent, target string, commit bool) error {
	target, err := resolveTarget(target)
	if err != nil {
		return err
	}
	reportFormat, err := report.ParseFormat(app.ReportFormat())
	if err != nil {
		return err
	}
	outputFormat, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if outputFormat == "" {
		outputFormat = output.DetectFormat("")
	}

	runID := uuid.NewString()
	started := time.Now()
	ctx = logging.WithRunID(logging.WithLogger(ctx, app.Logger()), runID)
	ctx = logging.WithFields(ctx, map[string]any{"target": target, "commit": commit})
	logger := logging.Ctx(ctx)

	registry, err := app.Registry(ctx, agent)
	if err != nil {
		return err
	}

	if commit {
		release, err := acquire(ctx, app)
		if err != nil {
			printHint(app, err)
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn().Err(err).Msg("Releasing run lock failed")
			}
		}()
	}

	logger.Info().Msg("Synchronization started")
	summary, runErr := reconcileTarget(ctx, registry, agent, target, commit)
	if runErr != nil {
		path, err := agent.WriteError(app.ReportDir(), started, runErr)
		if err != nil {
			logger.Error().Err(err).Msg("Writing error report failed")
		} else {
			fmt.Fprintf(app.Out(), "Error report written to %s\n", path)
		}
		printHint(app, runErr)
		return runErr
	}

	if err := output.FormatSummary(app.Out(), *summary, outputFormat); err != nil {
		return err
	}

	path, err := agent.WriteFile(app.ReportDir(), started, reportFormat)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out(), "Report written to %s\n", path)

	publish(ctx, app, runID, summary)

	totals := summary.Totals()
	logger.Info().
		Int("done", totals.Done).
		Int("failed", totals.Failed).
		Int("skipped", totals.Skipped).
		Dur("elapsed", time.Since(started)).
		Msg("Synchronization finished")
	return nil
}

func resolveTarget(target string) (string, error) {
	if target == TargetAll {
		return TargetAll, nil
	}
	family, ok := families.Resolve(target)
	if !ok {
		return "", errors.NewValidationError("family", target, "must be one of: users, rooms, leases, all")
	}
	return family, nil
}

func reconcileTarget(ctx context.Context, registry appcontext.Registry, agent *report.Agent, target string, commit bool) (*reconcile.Summary, error) {
	if target == TargetAll {
		return reconcile.RunAll(ctx, agent, commit, registry.Runners()...)
	}
	driver, err := registry.Get(target)
	if err != nil {
		return nil, err
	}
	return reconcile.Run(ctx, driver, commit)
}

func acquire(ctx context.Context, app appcontext.Interface) (func(context.Context) error, error) {
	locker, err := app.Locker(ctx)
	if err != nil {
		return nil, err
	}
	return locker.Acquire(ctx)
}

// hint explains known failure causes in operator terms.
func hint(err error) string {
	switch {
	case errors.IsLockNotObtained(err):
		return "Another commit run is in progress. Retry once it has finished."
	case errors.IsCanceled(err):
		return "The run was interrupted. Records already linked stay linked."
	case errors.IsRateLimited(err):
		return "Stripe rate limit reached. Lower STRIPE_RATE_LIMIT or --concurrency and retry."
	case errors.IsProviderUnavailable(err):
		return "Stripe is unavailable. Retry later."
	case errors.IsValidationError(err):
		return "Check the local data and the configuration, then retry."
	}
	return ""
}

func printHint(app appcontext.Interface, err error) {
	if h := hint(err); h != "" {
		fmt.Fprintln(app.Out(), h)
	}
}

// publish sends run events. Failures are logged only.
func publish(ctx context.Context, app appcontext.Interface, runID string, summary *reconcile.Summary) {
	logger := logging.FromContext(ctx)

	publisher, err := app.Publisher()
	if err != nil {
		logger.Warn().Err(err).Msg("Run events disabled")
		return
	}
	for _, event := range events.NewRunCompleted(runID, summary, time.Now()) {
		if err := publisher.Publish(ctx, event); err != nil {
			logger.Warn().Err(err).Str("family", event.Family).Msg("Run event not published")
		}
	}
}

func startEvent() reconcile.Event {
	return reconcile.Event{
		Title:       "Sync Script",
		Description: "Check and sync cohabs users and products to Stripe",
		Kind:        reconcile.EventStart,
	}
}

func attentionEvent() reconcile.Event {
	return reconcile.Event{
		Title:       "ATTENTION",
		Description: "All detected missing links will be created and added to the database",
		Kind:        reconcile.EventDanger,
	}
}
