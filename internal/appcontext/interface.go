// Package appcontext provides the shared application context interface
// used by all commands. Commands accept this interface rather than the
// concrete App so they can be tested against a Mock.
package appcontext

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/cohabs/stripesync/internal/events"
	"github.com/cohabs/stripesync/internal/families"
	"github.com/cohabs/stripesync/internal/lock"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// Registry resolves family drivers.
type Registry interface {
	// Get returns the driver of a family or Stripe resource name.
	Get(name string) (families.Driver, error)

	// Runners returns every driver in run order.
	Runners() []reconcile.Runner

	// Inspectors returns every driver in run order.
	Inspectors() []reconcile.Inspector
}

// Interface defines what commands need from the application.
type Interface interface {
	// Registry returns the family drivers reporting to reporter. The store
	// and the Stripe client are opened on first use.
	Registry(ctx context.Context, reporter reconcile.Reporter) (Registry, error)

	// Locker returns the run lock guarding commit runs.
	Locker(ctx context.Context) (lock.Locker, error)

	// Publisher returns the run event publisher.
	Publisher() (events.Publisher, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// ReportDir returns the directory receiving report files.
	ReportDir() string

	// ReportFormat returns the report file format.
	ReportFormat() string

	// In returns the reader prompts are answered on.
	In() io.Reader

	// Out returns the writer command output goes to.
	Out() io.Writer

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
