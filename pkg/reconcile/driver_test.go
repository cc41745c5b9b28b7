package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

func driverFixture() (*fakeStore, *fakeRemote) {
	store := newFakeStore(
		housed("1", "live"),          // synced
		housed("2", ""),              // missing
		housed("3", ""),              // missing
		housed("4", "gone"),          // broken
		housed("5", "flaky"),         // error
		tenant{ID: "6", Link: "live"}, // invalid
	)
	remote := newFakeRemote(reconcile.Resource{ID: "live"})
	remote.failing["flaky"] = errors.New("timeout")
	return store, remote
}

func TestDriverCommit(t *testing.T) {
	store, remote := driverFixture()
	rec := &recorder{}
	d := reconcile.NewDriver(tenantFamily(), store, remote, reconcile.WithReporter(rec), reconcile.WithConcurrency(3))

	stats, err := d.Reconcile(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, reconcile.Stats{Count: 6, Done: 3, Failed: 0, Skipped: 1, Synced: 1, Error: 1}, stats)
	assert.Equal(t, int32(3), remote.creates.Load())
	assert.Equal(t, stats.Count, stats.Done+stats.Failed+stats.Skipped+stats.Synced+stats.Error)

	titles := rec.titles()
	assert.Equal(t, "Sync TENANTS", titles[0])
	assert.Contains(t, titles, "Invalid:TENANTS")
	assert.Contains(t, titles, "Errors:TENANTS")

	complete := rec.events[len(rec.events)-1]
	assert.Equal(t, "Stripe synchronization complete", complete.Description)
	assert.Equal(t, [][]string{{"6", "3", "0", "1", "1", "1"}}, complete.Rows)
}

func TestDriverDryRun(t *testing.T) {
	store, remote := driverFixture()
	d := reconcile.NewDriver(tenantFamily(), store, remote)

	stats, err := d.Reconcile(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, reconcile.Stats{Count: 6, Skipped: 4, Synced: 1, Error: 1}, stats)
	assert.Zero(t, remote.creates.Load())
	assert.Zero(t, store.updates.Load())
	assert.False(t, stats.HasChanges())
	assert.True(t, stats.HasFailures())
}

func TestDriverProcessesMissingBeforeBroken(t *testing.T) {
	store, remote := driverFixture()
	rec := &recorder{}
	d := reconcile.NewDriver(tenantFamily(), store, remote, reconcile.WithReporter(rec))

	_, err := d.Reconcile(context.Background(), false)
	require.NoError(t, err)

	var processing []string
	for _, e := range rec.events {
		if e.Title == "...Processing:" {
			processing = append(processing, e.Description)
		}
	}
	assert.Equal(t, []string{"missing stripe tenants", "broken stripe tenants"}, processing)
}

func TestDriverListingMode(t *testing.T) {
	store, remote := driverFixture()
	d := reconcile.NewDriver(tenantFamily(), store, remote,
		reconcile.WithCheckMode(reconcile.CheckListing),
		reconcile.WithListLimit(100),
	)

	parts, count, err := d.Classify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, count)
	assert.Equal(t, int32(1), remote.lists.Load())
	assert.Zero(t, remote.retrieves.Load())
	// Listing mode cannot fail per record: flaky is simply absent.
	assert.Equal(t, 0, parts.Len(reconcile.StatusError))
	assert.Equal(t, 2, parts.Len(reconcile.StatusBroken))
}

func TestDriverStoreFailurePropagates(t *testing.T) {
	store, remote := driverFixture()
	store.listErr = errors.New("connection refused")
	d := reconcile.NewDriver(tenantFamily(), store, remote)

	_, err := d.Reconcile(context.Background(), true)
	require.Error(t, err)

	var resErr *pkgerrors.ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "list", resErr.Operation)
	assert.Zero(t, remote.creates.Load())
}

func TestDriverListingFailurePropagates(t *testing.T) {
	store, remote := driverFixture()
	remote.listErr = pkgerrors.NewAPIError("stripe", 503, "unavailable")
	d := reconcile.NewDriver(tenantFamily(), store, remote, reconcile.WithCheckMode(reconcile.CheckListing))

	_, err := d.Reconcile(context.Background(), true)
	assert.True(t, pkgerrors.IsProviderUnavailable(err))
}

func TestDriverInvalidOptions(t *testing.T) {
	store, remote := driverFixture()
	d := reconcile.NewDriver(tenantFamily(), store, remote, reconcile.WithConcurrency(0))

	_, err := d.Reconcile(context.Background(), false)
	assert.True(t, pkgerrors.IsValidationError(err))
	assert.Zero(t, store.calls())
}

func TestDriverRerunIsSafe(t *testing.T) {
	store, remote := driverFixture()
	d := reconcile.NewDriver(tenantFamily(), store, remote)

	first, err := d.Reconcile(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 3, first.Done)

	second, err := d.Reconcile(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Done)
	assert.Equal(t, 4, second.Synced)
	assert.Equal(t, int32(3), remote.creates.Load(), "linked records are not recreated")
}

func TestDriverInspect(t *testing.T) {
	store, remote := driverFixture()
	d := reconcile.NewDriver(tenantFamily(), store, remote)

	var in reconcile.Inspector = d
	got, err := in.Inspect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tenants", got.Family)
	assert.Equal(t, 6, got.Count)
	assert.Equal(t, map[reconcile.RecordStatus]int{
		reconcile.StatusMissing: 2,
		reconcile.StatusInvalid: 1,
		reconcile.StatusBroken:  1,
		reconcile.StatusSynced:  1,
		reconcile.StatusError:   1,
	}, got.Counts)
	assert.Equal(t, []string{"id", "link", "status", "message"}, got.Columns)
	require.Len(t, got.Rows, 5, "synced records are not listed")
	assert.Equal(t, []string{"2", "", "missing", ""}, got.Rows[0])
	assert.Equal(t, "invalid", got.Rows[2][2])
	assert.Equal(t, "Customer missing or deleted", got.Rows[3][3])
	assert.Equal(t, "timeout", got.Rows[4][3])

	assert.Zero(t, remote.creates.Load())
	assert.Zero(t, store.updates.Load())
}
