package reconcile

import (
	"context"
	"encoding/json"

	"github.com/cohabs/stripesync/pkg/errors"
)

// FamilyStats is the result of one family within a Summary.
type FamilyStats struct {
	Family string `json:"family" yaml:"family"`
	Stats  `yaml:",inline"`
}

// Summary collects family results in run order.
type Summary struct {
	Commit   bool          `json:"commit" yaml:"commit"`
	Families []FamilyStats `json:"families" yaml:"families"`
}

// Get returns the stats of family.
func (s *Summary) Get(family string) (Stats, bool) {
	for _, f := range s.Families {
		if f.Family == family {
			return f.Stats, true
		}
	}
	return Stats{}, false
}

// Totals returns the element-wise sum over all families.
func (s *Summary) Totals() Stats {
	var t Stats
	for _, f := range s.Families {
		t.Count += f.Count
		t.Done += f.Done
		t.Failed += f.Failed
		t.Skipped += f.Skipped
		t.Synced += f.Synced
		t.Error += f.Error
	}
	return t
}

// Run reconciles a single family and wraps its stats in a Summary.
func Run(ctx context.Context, runner Runner, commit bool) (*Summary, error) {
	summary := &Summary{Commit: commit}
	stats, err := runner.Run(ctx, commit, false)
	if err != nil {
		return summary, &errors.SyncError{Family: runner.Name(), Err: err}
	}
	summary.Families = append(summary.Families, FamilyStats{Family: runner.Name(), Stats: stats})
	return summary, nil
}

// RunAll reconciles runners sequentially in the given order. A later family
// never starts before the previous one has settled. The first driver-level
// error stops the run; the partial summary is returned with it.
func RunAll(ctx context.Context, reporter Reporter, commit bool, runners ...Runner) (*Summary, error) {
	if reporter == nil {
		reporter = NopReporter
	}
	reporter.Report(ctx, Event{Title: "ALL SYNC", Description: "Full Stripe synchronization started", Kind: EventInfo})

	summary := &Summary{Commit: commit}
	for _, r := range runners {
		if err := ctx.Err(); err != nil {
			return summary, errors.ErrCanceled
		}
		stats, err := r.Run(ctx, commit, true)
		if err != nil {
			return summary, &errors.SyncError{Family: r.Name(), Err: err}
		}
		summary.Families = append(summary.Families, FamilyStats{Family: r.Name(), Stats: stats})
	}

	columns := make([]string, 0, len(summary.Families))
	row := make([]string, 0, len(summary.Families))
	for _, f := range summary.Families {
		columns = append(columns, f.Family)
		data, _ := json.Marshal(f.Stats)
		row = append(row, string(data))
	}
	reporter.Report(ctx, Event{
		Title:       "ALL SYNC",
		Description: "All synchronization tasks completed, REPORT:",
		Kind:        EventComplete,
		Columns:     columns,
		Rows:        [][]string{row},
	})
	return summary, nil
}
