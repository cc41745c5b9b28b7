package reconcile

import (
	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
)

// Options controls a Driver.
type Options struct {
	Concurrency     int       // Maximum concurrent remote calls per stage
	CheckMode       CheckMode // Probe each link or compare against one listing
	ListLimit       int       // Page size of the listing in CheckListing mode
	IdempotencyKeys bool      // Send an idempotency key derived from the local id
	Step            bool      // Running as one step of RunAll (suppresses the stats table)
	Reporter        Reporter  // Receives progress events
}

// Defaults returns the default driver options.
func Defaults() *Options {
	return &Options{
		Concurrency:     constants.MaxConcurrentRequests,
		CheckMode:       CheckProbe,
		ListLimit:       constants.DefaultPageSize,
		IdempotencyKeys: false,
		Step:            false,
		Reporter:        NopReporter,
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks if the options are valid.
func (o *Options) Validate() error {
	if o.Concurrency <= 0 {
		return &errors.ValidationError{
			Field:   "Concurrency",
			Value:   o.Concurrency,
			Message: "concurrency must be positive",
		}
	}
	if o.ListLimit <= 0 || o.ListLimit > constants.MaxPageSize {
		return &errors.ValidationError{
			Field:   "ListLimit",
			Value:   o.ListLimit,
			Message: "list limit must be between 1 and 100",
		}
	}
	if _, err := ParseCheckMode(string(o.CheckMode)); err != nil {
		return err
	}
	return nil
}

// Option configures Options.
type Option func(*Options)

// WithConcurrency bounds concurrent remote calls.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// WithCheckMode selects the link check mode.
func WithCheckMode(mode CheckMode) Option {
	return func(o *Options) {
		o.CheckMode = mode
	}
}

// WithListLimit sets the listing page size.
func WithListLimit(limit int) Option {
	return func(o *Options) {
		o.ListLimit = limit
	}
}

// WithIdempotencyKeys enables idempotency keys on remote creation.
func WithIdempotencyKeys(enabled bool) Option {
	return func(o *Options) {
		o.IdempotencyKeys = enabled
	}
}

// WithStep marks the run as one step of RunAll.
func WithStep(step bool) Option {
	return func(o *Options) {
		o.Step = step
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(o *Options) {
		if r != nil {
			o.Reporter = r
		}
	}
}
