package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohabs/stripesync/internal/billing"
	"github.com/cohabs/stripesync/internal/events"
	"github.com/cohabs/stripesync/internal/lock"
	"github.com/cohabs/stripesync/internal/store"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/logging"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

func newTestApp(t *testing.T, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()
	isolate(t)
	var out bytes.Buffer
	opts = append([]Option{WithIO(strings.NewReader(""), &out), WithLogger(logging.NewNopLogger())}, opts...)
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", opts...)
	require.NoError(t, err)
	return app, &out
}

func TestAppNew(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
	assert.Equal(t, "./reports", app.ReportDir())
	assert.Equal(t, "text", app.ReportFormat())
}

func TestAppRegistryRequiresConfig(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := app.Registry(context.Background(), reconcile.NopReporter)
	var configErr *errors.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, configErr.Message, "DBHost")
	assert.Contains(t, configErr.Message, "StripeSecretKey")
}

func TestAppRegistryUsesInjectedBackends(t *testing.T) {
	client, err := billing.New(billing.Config{SecretKey: "sk_test_123"})
	require.NoError(t, err)

	app, _ := newTestApp(t,
		WithConfig(validConfig()),
		WithStore(store.New(nil, false)),
		WithBillingClient(client),
	)

	registry, err := app.Registry(context.Background(), reconcile.NopReporter)
	require.NoError(t, err)

	driver, err := registry.Get("customers")
	require.NoError(t, err)
	assert.Equal(t, "users", driver.Name())

	var names []string
	for _, r := range registry.Runners() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"users", "rooms", "leases"}, names)
}

func TestAppLockerAndPublisherDefaultToNop(t *testing.T) {
	app, _ := newTestApp(t, WithConfig(validConfig()))

	locker, err := app.Locker(context.Background())
	require.NoError(t, err)
	assert.IsType(t, lock.Nop{}, locker)

	publisher, err := app.Publisher()
	require.NoError(t, err)
	assert.IsType(t, events.Nop{}, publisher)

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
}

func TestExecuteVersion(t *testing.T) {
	app, out := newTestApp(t)

	require.NoError(t, app.Execute(context.Background(), []string{"version"}))
	assert.Contains(t, out.String(), "stripesync version 1.0.0")
}

func TestExecuteVersionJSONFlag(t *testing.T) {
	app, out := newTestApp(t)

	require.NoError(t, app.Execute(context.Background(), []string{"version", "-o", "json"}))
	assert.Contains(t, out.String(), `"version": "1.0.0"`)
}

func TestExecuteFlagsOverrideConfig(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Execute(context.Background(), []string{"version", "--concurrency", "3", "--check-mode", "listing", "--active-only"})
	require.NoError(t, err)
	assert.Equal(t, 3, app.Config().Concurrency)
	assert.Equal(t, "listing", app.Config().CheckMode)
	assert.True(t, app.Config().ActiveOnly)
}

func TestExecuteCheckWithoutConfig(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Execute(context.Background(), []string{"check", "users"})
	var configErr *errors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestExecuteUnknownCommand(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Error(t, app.Execute(context.Background(), []string{"deploy"}))
}
