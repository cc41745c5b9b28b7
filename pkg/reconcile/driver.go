package reconcile

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/logging"
)

// Runner is a reconciliation driver of any family.
type Runner interface {
	// Name returns the family name.
	Name() string

	// Run reconciles the family. step marks the run as part of RunAll.
	Run(ctx context.Context, commit, step bool) (Stats, error)
}

// Driver orchestrates classification and synchronization of one family.
type Driver[T Record, P any] struct {
	family Family[T, P]
	store  Store[T]
	remote Remote[P]
	opts   *Options
}

// NewDriver returns a Driver for family.
func NewDriver[T Record, P any](family Family[T, P], store Store[T], remote Remote[P], opts ...Option) *Driver[T, P] {
	return &Driver[T, P]{
		family: family,
		store:  store,
		remote: remote,
		opts:   Defaults().Apply(opts...),
	}
}

// Name implements Runner.
func (d *Driver[T, P]) Name() string {
	return d.family.Name
}

// Family returns the driver's family.
func (d *Driver[T, P]) Family() Family[T, P] {
	return d.family
}

// Reconcile classifies every record of the family and synchronizes the
// missing and broken ones under commit.
func (d *Driver[T, P]) Reconcile(ctx context.Context, commit bool) (Stats, error) {
	return d.Run(ctx, commit, d.opts.Step)
}

// Run implements Runner.
func (d *Driver[T, P]) Run(ctx context.Context, commit, step bool) (Stats, error) {
	if err := d.opts.Validate(); err != nil {
		return Stats{}, err
	}

	ctx = logging.WithFamily(ctx, d.family.Name)
	logger := logging.FromContext(ctx)
	reporter := d.opts.Reporter
	title := d.title(step)

	reporter.Report(ctx, Event{Title: title, Description: "Stripe synchronization started", Kind: EventInfo})
	logger.Info().Bool("commit", commit).Str("check_mode", string(d.opts.CheckMode)).Msg("Reconciliation started")

	parts, count, err := d.Classify(ctx)
	if err != nil {
		return Stats{}, err
	}

	invalid := d.reportInvalid(ctx, parts[StatusInvalid])

	batch := NewBatch(d.family, NewSynchronizer(d.family, d.store, d.remote, d.opts.IdempotencyKeys), reporter, d.opts.Concurrency)
	missing := batch.Process(ctx, StatusMissing, parts.Items(StatusMissing), commit)
	broken := batch.Process(ctx, StatusBroken, parts.Items(StatusBroken), commit)

	d.reportErrors(ctx, parts[StatusError])

	counts := missing.Add(broken)
	stats := Stats{
		Count:   count,
		Done:    counts.Done,
		Failed:  counts.Failed,
		Skipped: counts.Skipped + invalid,
		Synced:  parts.Len(StatusSynced),
		Error:   parts.Len(StatusError),
	}

	complete := Event{Title: title, Description: "Stripe synchronization complete", Kind: EventSuccess}
	if !step {
		complete.Columns = []string{"count", "done", "failed", "skipped", "synced", "error"}
		complete.Rows = [][]string{statsRow(stats)}
	}
	reporter.Report(ctx, complete)

	logger.Info().
		Int("count", stats.Count).
		Int("done", stats.Done).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Int("synced", stats.Synced).
		Int("error", stats.Error).
		Msg("Reconciliation complete")

	return stats, nil
}

// Classify loads the family's local records and comparison data and
// classifies them. It never mutates anything. The record count is returned
// alongside the partitions.
func (d *Driver[T, P]) Classify(ctx context.Context) (Partitions[T], int, error) {
	var (
		records []T
		checker Checker
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = d.store.ListAll(gctx)
		return errors.WrapResource("list", d.family.Name, "", err)
	})
	switch d.opts.CheckMode {
	case CheckListing:
		g.Go(func() error {
			resources, err := d.remote.List(gctx, d.opts.ListLimit)
			if err != nil {
				return errors.WrapResource("list", d.remote.Kind(), "", err)
			}
			checker = NewListing(resources)
			return nil
		})
	default:
		checker = NewProbe(d.remote)
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	parts := d.family.Classify(ctx, records, checker, d.opts.Concurrency)
	logging.FromContext(ctx).Debug().
		Int("missing", parts.Len(StatusMissing)).
		Int("invalid", parts.Len(StatusInvalid)).
		Int("broken", parts.Len(StatusBroken)).
		Int("synced", parts.Len(StatusSynced)).
		Int("error", parts.Len(StatusError)).
		Msg("Records classified")
	return parts, len(records), nil
}

func (d *Driver[T, P]) title(step bool) string {
	if step {
		return "Sync step: " + d.family.Label()
	}
	return "Sync " + d.family.Label()
}

// reportInvalid reports ineligible records and returns how many were skipped.
func (d *Driver[T, P]) reportInvalid(ctx context.Context, invalid []Classification[T]) int {
	if len(invalid) == 0 {
		return 0
	}
	d.opts.Reporter.Report(ctx, Event{
		Title:       "Invalid:" + d.family.Label(),
		Description: "Some records are missing required links and were skipped",
		Kind:        EventWarning,
		Columns:     withMessage(d.family.Columns),
		Rows:        d.classificationRows(invalid),
	})
	return len(invalid)
}

func (d *Driver[T, P]) reportErrors(ctx context.Context, failed []Classification[T]) {
	if len(failed) == 0 {
		return
	}
	d.opts.Reporter.Report(ctx, Event{
		Title:       "Errors:" + d.family.Label(),
		Description: "Some records have failed during the check process",
		Kind:        EventFailure,
		Columns:     withMessage(d.family.Columns),
		Rows:        d.classificationRows(failed),
	})
}

func (d *Driver[T, P]) classificationRows(cs []Classification[T]) [][]string {
	items := make([]T, len(cs))
	for i, c := range cs {
		items[i] = c.Item
	}
	return d.family.rows(items, func(i int) string { return cs[i].Message })
}

func statsRow(s Stats) []string {
	return []string{
		strconv.Itoa(s.Count),
		strconv.Itoa(s.Done),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.Synced),
		strconv.Itoa(s.Error),
	}
}
