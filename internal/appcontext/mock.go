package appcontext

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cohabs/stripesync/internal/events"
	"github.com/cohabs/stripesync/internal/families"
	"github.com/cohabs/stripesync/internal/lock"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	RegistryFunc     func(ctx context.Context, reporter reconcile.Reporter) (Registry, error)
	LockerFunc       func(ctx context.Context) (lock.Locker, error)
	PublisherFunc    func() (events.Publisher, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	ReportDirFunc    func() string
	ReportFormatFunc func() string
	Input            io.Reader
	Output           io.Writer
}

// Registry returns a registry using the mock function or nil.
func (m *Mock) Registry(ctx context.Context, reporter reconcile.Reporter) (Registry, error) {
	if m.RegistryFunc != nil {
		return m.RegistryFunc(ctx, reporter)
	}
	return nil, nil
}

// Locker returns a locker using the mock function or a no-op locker.
func (m *Mock) Locker(ctx context.Context) (lock.Locker, error) {
	if m.LockerFunc != nil {
		return m.LockerFunc(ctx)
	}
	return lock.Nop{}, nil
}

// Publisher returns a publisher using the mock function or a no-op publisher.
func (m *Mock) Publisher() (events.Publisher, error) {
	if m.PublisherFunc != nil {
		return m.PublisherFunc()
	}
	return events.Nop{}, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// ReportDir returns the report directory using the mock function or "".
func (m *Mock) ReportDir() string {
	if m.ReportDirFunc != nil {
		return m.ReportDirFunc()
	}
	return ""
}

// ReportFormat returns the report format using the mock function or "text".
func (m *Mock) ReportFormat() string {
	if m.ReportFormatFunc != nil {
		return m.ReportFormatFunc()
	}
	return "text"
}

// In returns Input or an empty reader.
func (m *Mock) In() io.Reader {
	if m.Input != nil {
		return m.Input
	}
	return strings.NewReader("")
}

// Out returns Output or io.Discard.
func (m *Mock) Out() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return io.Discard
}

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

var _ Interface = (*Mock)(nil)

// MockDriver is a family driver whose behavior is set by function fields.
type MockDriver struct {
	Family      string
	RunFunc     func(ctx context.Context, commit, step bool) (reconcile.Stats, error)
	InspectFunc func(ctx context.Context) (reconcile.Inspection, error)
}

// Name implements reconcile.Runner.
func (d *MockDriver) Name() string { return d.Family }

// Run implements reconcile.Runner.
func (d *MockDriver) Run(ctx context.Context, commit, step bool) (reconcile.Stats, error) {
	if d.RunFunc != nil {
		return d.RunFunc(ctx, commit, step)
	}
	return reconcile.Stats{}, nil
}

// Inspect implements reconcile.Inspector.
func (d *MockDriver) Inspect(ctx context.Context) (reconcile.Inspection, error) {
	if d.InspectFunc != nil {
		return d.InspectFunc(ctx)
	}
	return reconcile.Inspection{Family: d.Family}, nil
}

// MockRegistry serves drivers in the given order.
type MockRegistry struct {
	Drivers []*MockDriver
}

// Get implements Registry.
func (r *MockRegistry) Get(name string) (families.Driver, error) {
	family, ok := families.Resolve(name)
	if ok {
		for _, d := range r.Drivers {
			if d.Family == family {
				return d, nil
			}
		}
	}
	return nil, errors.NewValidationError("family", name, "unknown family")
}

// Runners implements Registry.
func (r *MockRegistry) Runners() []reconcile.Runner {
	out := make([]reconcile.Runner, len(r.Drivers))
	for i, d := range r.Drivers {
		out[i] = d
	}
	return out
}

// Inspectors implements Registry.
func (r *MockRegistry) Inspectors() []reconcile.Inspector {
	out := make([]reconcile.Inspector, len(r.Drivers))
	for i, d := range r.Drivers {
		out[i] = d
	}
	return out
}

var _ Registry = (*MockRegistry)(nil)
