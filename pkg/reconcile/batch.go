package reconcile

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/iter"

	"github.com/cohabs/stripesync/pkg/constants"
)

// Batch fans records of one partition through a Synchronizer.
type Batch[T Record, P any] struct {
	family      Family[T, P]
	sync        *Synchronizer[T, P]
	reporter    Reporter
	concurrency int
}

// NewBatch returns a Batch. A nil reporter discards events.
func NewBatch[T Record, P any](family Family[T, P], sync *Synchronizer[T, P], reporter Reporter, concurrency int) *Batch[T, P] {
	if reporter == nil {
		reporter = NopReporter
	}
	if concurrency <= 0 {
		concurrency = constants.MaxConcurrentRequests
	}
	return &Batch[T, P]{family: family, sync: sync, reporter: reporter, concurrency: concurrency}
}

// Process synchronizes every record concurrently and waits for all of them.
// A failing record never cancels its siblings. Outcomes are reported by
// status and their counts returned.
func (b *Batch[T, P]) Process(ctx context.Context, origin RecordStatus, records []T, commit bool) Counts {
	if len(records) == 0 {
		return Counts{}
	}

	subject := fmt.Sprintf("%s stripe %s", origin, b.family.Name)
	b.reporter.Report(ctx, Event{
		Title:       "...Processing:",
		Description: subject,
		Kind:        EventInfo,
		Columns:     b.family.Columns,
		Rows:        b.family.rows(records),
	})

	mapper := iter.Mapper[T, Outcome[T]]{MaxGoroutines: b.concurrency}
	outcomes := mapper.Map(records, func(record *T) Outcome[T] {
		return b.sync.Sync(ctx, *record, commit)
	})

	var done, failed, skipped []Outcome[T]
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeDone:
			done = append(done, o)
		case OutcomeFailed:
			failed = append(failed, o)
		default:
			skipped = append(skipped, o)
		}
	}

	if len(done) > 0 {
		b.reporter.Report(ctx, Event{
			Title:       "Success:",
			Description: "Successfully updated " + subject,
			Kind:        EventSuccess,
			Columns:     b.family.Columns,
			Rows:        b.family.rows(targets(done)),
		})
	}
	if len(failed) > 0 {
		b.reporter.Report(ctx, Event{
			Title:       "Failed:",
			Description: subject,
			Kind:        EventDanger,
			Columns:     withMessage(b.family.Columns),
			Rows:        b.family.rows(targets(failed), func(i int) string { return failed[i].Message }),
		})
	}
	if len(skipped) > 0 {
		b.reporter.Report(ctx, Event{
			Title:       "Skipped:",
			Description: subject,
			Kind:        EventWarning,
			Columns:     withMessage(b.family.Columns),
			Rows:        b.family.rows(targets(skipped), func(int) string { return "SKIPPED" }),
		})
	}

	return Counts{Done: len(done), Failed: len(failed), Skipped: len(skipped)}
}

func targets[T Record](outcomes []Outcome[T]) []T {
	items := make([]T, len(outcomes))
	for i, o := range outcomes {
		items[i] = o.Target
	}
	return items
}

func withMessage(columns []string) []string {
	if len(columns) == 0 {
		return nil
	}
	out := make([]string, 0, len(columns)+1)
	out = append(out, columns...)
	return append(out, "message")
}
