package reconcile_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohabs/stripesync/pkg/logging"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

func TestSyncDryRunIsPure(t *testing.T) {
	store := newFakeStore(housed("1", ""))
	remote := newFakeRemote()
	s := reconcile.NewSynchronizer(tenantFamily(), store, remote, false)

	out := s.Sync(context.Background(), housed("1", ""), false)

	assert.Equal(t, reconcile.OutcomeSkipped, out.Status)
	assert.Equal(t, "1", out.ID)
	assert.Equal(t, housed("1", ""), out.Target)
	assert.Zero(t, store.calls())
	assert.Zero(t, remote.calls())
}

func TestSyncDone(t *testing.T) {
	store := newFakeStore(housed("1", ""))
	remote := newFakeRemote()
	s := reconcile.NewSynchronizer(tenantFamily(), store, remote, false)

	out := s.Sync(context.Background(), housed("1", ""), true)

	require.Equal(t, reconcile.OutcomeDone, out.Status, out.Message)
	assert.Equal(t, "1", out.ID)
	assert.Equal(t, "1", out.Target.ID)
	assert.Equal(t, "cus_new_1", out.Target.Link, "target is the re-read row")
	assert.Equal(t, int32(1), remote.creates.Load())
	assert.Equal(t, int32(1), store.updates.Load())
	assert.Equal(t, int32(1), store.finds.Load())
	assert.Empty(t, remote.keys)
}

func TestSyncLogsRecordContextOnce(t *testing.T) {
	tl := logging.NewTestLogger(t)
	store := newFakeStore(housed("1", ""))
	store.updateErr = errors.New("boom")
	s := reconcile.NewSynchronizer(tenantFamily(), store, newFakeRemote(), false)

	ctx := logging.WithFamily(logging.WithLogger(context.Background(), tl.Logger), "tenants")
	s.Sync(ctx, housed("1", ""), true)

	lines := tl.Lines()
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"family":`), line)
		assert.Equal(t, 1, strings.Count(line, `"record_id":"1"`), line)
	}
}

func TestSyncLocalUpdateFails(t *testing.T) {
	store := newFakeStore(housed("1", ""))
	store.updateErr = errors.New("boom")
	remote := newFakeRemote()
	s := reconcile.NewSynchronizer(tenantFamily(), store, remote, false)

	out := s.Sync(context.Background(), housed("1", ""), true)

	assert.Equal(t, reconcile.OutcomeFailed, out.Status)
	assert.Equal(t, "boom", out.Message)
	assert.Equal(t, housed("1", ""), out.Target)
	assert.Equal(t, int32(1), remote.creates.Load(), "remote resource stays created but unlinked")
	assert.Zero(t, store.finds.Load())
}

func TestSyncCreateFails(t *testing.T) {
	store := newFakeStore(housed("1", ""))
	remote := newFakeRemote()
	remote.createErr = errors.New("card_declined")
	s := reconcile.NewSynchronizer(tenantFamily(), store, remote, false)

	out := s.Sync(context.Background(), housed("1", ""), true)

	assert.Equal(t, reconcile.OutcomeFailed, out.Status)
	assert.Equal(t, "card_declined", out.Message)
	assert.Zero(t, store.updates.Load())
}

func TestSyncNotFoundAfterUpdate(t *testing.T) {
	store := newFakeStore(housed("7", ""))
	store.lost = true
	s := reconcile.NewSynchronizer(tenantFamily(), store, newFakeRemote(), false)

	out := s.Sync(context.Background(), housed("7", ""), true)

	assert.Equal(t, reconcile.OutcomeFailed, out.Status)
	assert.Equal(t, "Tenant to update with id: 7 was not found", out.Message)
}

func TestSyncReReadError(t *testing.T) {
	store := newFakeStore(housed("7", ""))
	store.findErr = errors.New("driver: bad connection")
	s := reconcile.NewSynchronizer(tenantFamily(), store, newFakeRemote(), false)

	out := s.Sync(context.Background(), housed("7", ""), true)

	assert.Equal(t, reconcile.OutcomeFailed, out.Status)
	assert.Equal(t, "driver: bad connection", out.Message)
}

func TestSyncIdempotencyKeys(t *testing.T) {
	store := newFakeStore(housed("9", ""))
	remote := newFakeRemote()
	s := reconcile.NewSynchronizer(tenantFamily(), store, remote, true)

	out := s.Sync(context.Background(), housed("9", ""), true)

	require.Equal(t, reconcile.OutcomeDone, out.Status)
	assert.Equal(t, []string{"stripesync-customer-9"}, remote.keys)
	assert.Equal(t, reconcile.IdempotencyKey("customer", "9"), remote.keys[0])
}
