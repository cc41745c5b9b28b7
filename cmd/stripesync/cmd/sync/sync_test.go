package sync

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohabs/stripesync/internal/appcontext"
	"github.com/cohabs/stripesync/internal/events"
	"github.com/cohabs/stripesync/internal/lock"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/logging"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

type run struct {
	family string
	commit bool
	step   bool
}

type harness struct {
	mu        gosync.Mutex
	runs      []run
	registry  int
	failOn    string
	locks     int
	lockErr   error
	published []events.RunCompleted
	dir       string
	out       bytes.Buffer
}

func (h *harness) app(input string) *appcontext.Mock {
	return &appcontext.Mock{
		RegistryFunc: func(_ context.Context, reporter reconcile.Reporter) (appcontext.Registry, error) {
			h.registry++
			var drivers []*appcontext.MockDriver
			for _, name := range []string{"users", "rooms", "leases"} {
				name := name
				drivers = append(drivers, &appcontext.MockDriver{
					Family: name,
					RunFunc: func(ctx context.Context, commit, step bool) (reconcile.Stats, error) {
						h.mu.Lock()
						h.runs = append(h.runs, run{family: name, commit: commit, step: step})
						h.mu.Unlock()
						if name == h.failOn {
							return reconcile.Stats{}, errors.ErrProviderUnavailable
						}
						reporter.Report(ctx, reconcile.Event{Title: "Sync " + name, Description: "done", Kind: reconcile.EventSuccess})
						return reconcile.Stats{Count: 2, Done: 1, Synced: 1}, nil
					},
				})
			}
			return &appcontext.MockRegistry{Drivers: drivers}, nil
		},
		LockerFunc: func(context.Context) (lock.Locker, error) {
			return lockerFunc(func() error {
				h.locks++
				return h.lockErr
			}), nil
		},
		PublisherFunc: func() (events.Publisher, error) {
			return publisherFunc(func(e events.RunCompleted) {
				h.published = append(h.published, e)
			}), nil
		},
		ReportDirFunc: func() string { return h.dir },
		Input:         strings.NewReader(input),
		Output:        &h.out,
	}
}

func newHarness(t *testing.T) *harness {
	return &harness{dir: t.TempDir()}
}

func (h *harness) files(t *testing.T) []string {
	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type lockerFunc func() error

func (f lockerFunc) Acquire(context.Context) (func(context.Context) error, error) {
	if err := f(); err != nil {
		return nil, err
	}
	return func(context.Context) error { return nil }, nil
}

func (lockerFunc) Close() error { return nil }

type publisherFunc func(events.RunCompleted)

func (f publisherFunc) Publish(_ context.Context, e events.RunCompleted) error {
	f(e)
	return nil
}

func (publisherFunc) Close() error { return nil }

func TestExecuteDryRun(t *testing.T) {
	h := newHarness(t)

	err := Execute(context.Background(), h.app(""), "customers", &Flags{})
	require.NoError(t, err)

	assert.Equal(t, []run{{family: "users"}}, h.runs)
	assert.Zero(t, h.locks)
	assert.Contains(t, h.out.String(), "Sync Script")
	assert.NotContains(t, h.out.String(), "ATTENTION")

	files := h.files(t)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "cohabs-stripe-report-"))
	assert.Equal(t, ".txt", filepath.Ext(files[0]))

	data, err := os.ReadFile(filepath.Join(h.dir, files[0]))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[start] - [Sync Script: Check and sync cohabs users and products to Stripe]")
	assert.Contains(t, string(data), "[success] - [Sync users: done]")

	require.Len(t, h.published, 1)
	assert.Equal(t, "users", h.published[0].Family)
	assert.False(t, h.published[0].Commit)
}

func TestExecuteCommitDeclined(t *testing.T) {
	h := newHarness(t)

	err := Execute(context.Background(), h.app("n\n"), "rooms", &Flags{Commit: true})
	require.NoError(t, err)

	assert.Equal(t, []run{{family: "rooms"}}, h.runs)
	assert.Zero(t, h.locks)
	assert.Contains(t, h.out.String(), CommitQuestion)
}

func TestExecuteCommitConfirmed(t *testing.T) {
	h := newHarness(t)

	err := Execute(context.Background(), h.app("y\n"), "leases", &Flags{Commit: true})
	require.NoError(t, err)

	assert.Equal(t, []run{{family: "leases", commit: true}}, h.runs)
	assert.Equal(t, 1, h.locks)
	assert.Contains(t, h.out.String(), "ATTENTION")
	require.Len(t, h.published, 1)
	assert.True(t, h.published[0].Commit)
}

func TestExecuteYesSkipsPrompt(t *testing.T) {
	h := newHarness(t)

	err := Execute(context.Background(), h.app(""), "users", &Flags{Commit: true, Yes: true})
	require.NoError(t, err)

	assert.Equal(t, []run{{family: "users", commit: true}}, h.runs)
	assert.NotContains(t, h.out.String(), CommitQuestion)
}

func TestExecuteAllRunsInOrder(t *testing.T) {
	h := newHarness(t)

	err := Execute(context.Background(), h.app(""), "all", &Flags{})
	require.NoError(t, err)

	assert.Equal(t, []run{
		{family: "users", step: true},
		{family: "rooms", step: true},
		{family: "leases", step: true},
	}, h.runs)
	assert.Len(t, h.published, 3)
}

func TestExecuteUnknownFamily(t *testing.T) {
	h := newHarness(t)

	err := Execute(context.Background(), h.app(""), "houses", &Flags{})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Zero(t, h.registry)
	assert.Empty(t, h.files(t))
}

func TestExecuteDriverFailureWritesErrorReport(t *testing.T) {
	h := newHarness(t)
	h.failOn = "rooms"

	err := Execute(context.Background(), h.app(""), "all", &Flags{})
	require.Error(t, err)

	var syncErr *errors.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "rooms", syncErr.Family)
	assert.ErrorIs(t, err, errors.ErrProviderUnavailable)

	// leases never start after rooms failed
	assert.Len(t, h.runs, 2)
	assert.Empty(t, h.published)

	files := h.files(t)
	require.Len(t, files, 1)
	assert.Equal(t, ".error", filepath.Ext(files[0]))
	data, err := os.ReadFile(filepath.Join(h.dir, files[0]))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[danger] - [Error: ")
}

func TestExecuteLockHeld(t *testing.T) {
	h := newHarness(t)
	h.lockErr = errors.ErrLockNotObtained

	err := Execute(context.Background(), h.app(""), "users", &Flags{Commit: true, Yes: true})
	require.Error(t, err)
	assert.True(t, errors.IsLockNotObtained(err))
	assert.Empty(t, h.runs)
	assert.Contains(t, h.out.String(), "Another commit run is in progress.")
}

func TestRunLogsRunIDOnce(t *testing.T) {
	h := newHarness(t)
	tl := logging.NewTestLogger(t)
	app := h.app("")
	app.LoggerFunc = func() *zerolog.Logger { return tl.Logger }

	require.NoError(t, Execute(context.Background(), app, "users", &Flags{}))

	var tagged int
	for _, line := range tl.Lines() {
		n := strings.Count(line, `"run_id":`)
		assert.LessOrEqual(t, n, 1, line)
		if n == 1 {
			tagged++
			assert.Equal(t, 1, strings.Count(line, `"target":`), line)
		}
	}
	assert.Positive(t, tagged)
}

func TestHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"lock held", errors.ErrLockNotObtained, "Another commit run is in progress."},
		{"canceled", errors.ErrCanceled, "The run was interrupted."},
		{"rate limited", errors.NewAPIError("stripe", 429, "slow down"), "Stripe rate limit reached."},
		{"stripe down", errors.NewSyncError("rooms", errors.ErrProviderUnavailable), "Stripe is unavailable."},
		{"validation", errors.NewValidationError("rent", "x", "bad"), "Check the local data"},
		{"other", errors.ErrNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == "" {
				assert.Empty(t, hint(tt.err))
				return
			}
			assert.Contains(t, hint(tt.err), tt.want)
		})
	}
}

func TestInteractiveCancel(t *testing.T) {
	h := newHarness(t)

	err := Interactive(context.Background(), h.app("n\n5\n"))
	require.NoError(t, err)

	assert.Zero(t, h.registry)
	assert.Empty(t, h.runs)
	assert.Empty(t, h.files(t))
}

func TestInteractiveRunAllInCommitMode(t *testing.T) {
	h := newHarness(t)

	err := Interactive(context.Background(), h.app("y\n4\n"))
	require.NoError(t, err)

	require.Len(t, h.runs, 3)
	for _, r := range h.runs {
		assert.True(t, r.commit, r.family)
	}
	assert.Equal(t, 1, h.locks)
	assert.Contains(t, h.out.String(), "ATTENTION")
	assert.Len(t, h.files(t), 1)
}

func TestRunRejectsUnknownReportFormat(t *testing.T) {
	h := newHarness(t)
	app := h.app("")
	app.ReportFormatFunc = func() string { return "pdf" }

	err := Run(context.Background(), app, nil, "users", false)
	require.Error(t, err)
	assert.Empty(t, h.runs)
}
