// Package check provides the check command, which classifies records
// without touching Stripe resources or the database links.
package check

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cohabs/stripesync/internal/appcontext"
	"github.com/cohabs/stripesync/internal/cmd/output"
	"github.com/cohabs/stripesync/internal/families"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// NewCommand creates the check command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "check [users|rooms|leases|all]",
		GroupID: "core",
		Short:   "Show how records are linked to Stripe",
		Long: `Check classifies users, rooms and leases as missing, invalid, broken,
synced or error and prints the counts followed by every record that is not
synced. It never creates Stripe resources and never writes links.`,
		Example: `  stripesync check                 # Every family
  stripesync check leases -o json  # Lease partitions as JSON`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: append(append([]string{}, families.Names...), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}
			return Execute(cmd.Context(), app, target)
		},
	}
}

// Execute inspects target and prints the partitions.
func Execute(ctx context.Context, app appcontext.Interface, target string) error {
	if target != "all" {
		if _, ok := families.Resolve(target); !ok {
			return errors.NewValidationError("family", target, "must be one of: users, rooms, leases, all")
		}
	}
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}

	registry, err := app.Registry(ctx, reconcile.NopReporter)
	if err != nil {
		return err
	}

	inspectors := registry.Inspectors()
	if target != "all" {
		driver, err := registry.Get(target)
		if err != nil {
			return err
		}
		inspectors = []reconcile.Inspector{driver}
	}

	inspections := make([]reconcile.Inspection, 0, len(inspectors))
	for _, in := range inspectors {
		ins, err := in.Inspect(ctx)
		if err != nil {
			return errors.NewSyncError(in.Name(), err)
		}
		app.Logger().Debug().Str("family", in.Name()).Int("count", ins.Count).Msg("Family inspected")
		inspections = append(inspections, ins)
	}

	return output.FormatInspections(app.Out(), inspections, format)
}
