// Package app provides the application context and dependency management
// for the stripesync CLI. It centralizes configuration, logging and the
// lifecycle of the database, the Stripe client, the run lock and the event
// publisher.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cohabs/stripesync/internal/appcontext"
	"github.com/cohabs/stripesync/internal/billing"
	"github.com/cohabs/stripesync/internal/events"
	"github.com/cohabs/stripesync/internal/families"
	"github.com/cohabs/stripesync/internal/lock"
	"github.com/cohabs/stripesync/internal/store"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// App represents the stripesync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	in  io.Reader
	out io.Writer
	err io.Writer

	// Lazily opened backends
	mu        sync.Mutex
	store     *store.Store
	client    *billing.Client
	locker    lock.Locker
	publisher events.Publisher
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		in:      os.Stdin,
		out:     os.Stdout,
		err:     os.Stderr,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config, app.err)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// ReportDir returns the directory receiving report files.
func (a *App) ReportDir() string {
	return a.config.ReportDir
}

// ReportFormat returns the report file format.
func (a *App) ReportFormat() string {
	return a.config.ReportFormat
}

// In returns the prompt input.
func (a *App) In() io.Reader {
	return a.in
}

// Out returns the command output.
func (a *App) Out() io.Writer {
	return a.out
}

// Registry returns the family drivers reporting to reporter. The database
// and the Stripe client are opened once and shared by later calls.
func (a *App) Registry(ctx context.Context, reporter reconcile.Reporter) (appcontext.Registry, error) {
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	mode, err := reconcile.ParseCheckMode(a.config.CheckMode)
	if err != nil {
		return nil, err
	}

	st, client, err := a.backends(ctx)
	if err != nil {
		return nil, err
	}

	return families.NewRegistry(st, client,
		reconcile.WithConcurrency(a.config.Concurrency),
		reconcile.WithCheckMode(mode),
		reconcile.WithListLimit(a.config.ListLimit),
		reconcile.WithIdempotencyKeys(a.config.IdempotencyKeys),
		reconcile.WithReporter(reporter),
	), nil
}

func (a *App) backends(ctx context.Context) (*store.Store, *billing.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		db, err := store.Open(ctx, a.config.Store())
		if err != nil {
			return nil, nil, err
		}
		a.store = store.New(db, a.config.ActiveOnly)
		a.logger.Debug().Str("host", a.config.DBHost).Str("database", a.config.DBName).Msg("Database opened")
	}

	if a.client == nil {
		client, err := billing.New(a.config.Billing())
		if err != nil {
			return nil, nil, err
		}
		a.client = client
	}

	return a.store, a.client, nil
}

// Locker returns the run lock, connecting to Redis on first use.
func (a *App) Locker(ctx context.Context) (lock.Locker, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locker == nil {
		l, err := lock.New(ctx, a.config.Lock())
		if err != nil {
			return nil, err
		}
		a.locker = l
	}
	return a.locker, nil
}

// Publisher returns the run event publisher, dialing the broker on first use.
func (a *App) Publisher() (events.Publisher, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.publisher == nil {
		p, err := events.New(a.config.AMQPURL)
		if err != nil {
			return nil, errors.WrapResource("dial", "amqp", "", err)
		}
		a.publisher = p
	}
	return a.publisher, nil
}

// Shutdown releases every opened backend.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.locker != nil {
		errs = append(errs, a.locker.Close())
		a.locker = nil
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
		a.publisher = nil
	}
	return errors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithIO sets the prompt input and the command output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) error {
		a.in = in
		a.out = out
		return nil
	}
}

// WithStore sets an opened store (useful for testing).
func WithStore(st *store.Store) Option {
	return func(a *App) error {
		a.store = st
		return nil
	}
}

// WithBillingClient sets a Stripe client (useful for testing).
func WithBillingClient(client *billing.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}

var _ appcontext.Interface = (*App)(nil)
