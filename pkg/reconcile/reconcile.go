// Package reconcile checks local records against their billing provider
// counterparts and creates the counterparts that are missing.
//
// The engine is generic over a local record type T and a remote creation
// payload P. A Family supplies the per-entity pieces (completeness check,
// link accessor, payload builder, report columns); a Store and a Remote
// supply I/O. Everything else (classification, synchronization, batching,
// aggregation) is shared by every family.
//
// Example usage:
//
//	driver := reconcile.NewDriver(family, store, remote,
//	    reconcile.WithReporter(agent),
//	    reconcile.WithConcurrency(10),
//	)
//	stats, err := driver.Reconcile(ctx, commit)
package reconcile

import (
	"context"
	"fmt"
)

// RecordStatus is the classification state of a local record.
type RecordStatus string

// Classification states.
const (
	StatusMissing RecordStatus = "missing"
	StatusInvalid RecordStatus = "invalid"
	StatusBroken  RecordStatus = "broken"
	StatusSynced  RecordStatus = "synced"
	StatusError   RecordStatus = "error"
)

// Statuses lists every classification state in report order.
var Statuses = []RecordStatus{StatusMissing, StatusInvalid, StatusBroken, StatusSynced, StatusError}

// String returns the status name.
func (s RecordStatus) String() string {
	return string(s)
}

// OutcomeStatus is the terminal state of one synchronization attempt.
type OutcomeStatus string

// Outcome states.
const (
	OutcomeDone    OutcomeStatus = "done"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Record is a row of the local store.
type Record interface {
	RecordID() string
}

// Resource is the part of a billing provider object the engine looks at.
type Resource struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// CreateOptions are passed to Remote.Create.
type CreateOptions struct {
	// IdempotencyKey is empty unless idempotency keys are enabled.
	IdempotencyKey string
}

// Store is the local side of a family.
type Store[T Record] interface {
	// ListAll returns every record of the family in listing order.
	ListAll(ctx context.Context) ([]T, error)

	// FindByRemoteID returns the record linked to remoteID, or an
	// errors.NotFoundError.
	FindByRemoteID(ctx context.Context, remoteID string) (T, error)

	// UpdateLink writes remoteID into the record's link column.
	UpdateLink(ctx context.Context, id, remoteID string) error
}

// Remote is the billing provider side of a family.
type Remote[P any] interface {
	// Kind names the resource kind, e.g. "customer".
	Kind() string

	// List returns a single bounded page of resources.
	List(ctx context.Context, limit int) ([]Resource, error)

	// Retrieve returns one resource, or an errors.NotFoundError.
	Retrieve(ctx context.Context, id string) (Resource, error)

	// Create creates a resource from payload.
	Create(ctx context.Context, payload P, opts CreateOptions) (Resource, error)
}

// Classification is the transient result of classifying one record.
type Classification[T Record] struct {
	Item    T            `json:"item"`
	Status  RecordStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Outcome is the result of one Synchronizer invocation.
type Outcome[T Record] struct {
	ID      string        `json:"id"`
	Status  OutcomeStatus `json:"status"`
	Target  T             `json:"target"`
	Message string        `json:"message,omitempty"`
}

// Counts aggregates outcomes of one batch.
type Counts struct {
	Done    int `json:"done"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Done:    c.Done + o.Done,
		Failed:  c.Failed + o.Failed,
		Skipped: c.Skipped + o.Skipped,
	}
}

// Total returns done+failed+skipped.
func (c Counts) Total() int {
	return c.Done + c.Failed + c.Skipped
}

// Stats is the per family result of a reconciliation run.
type Stats struct {
	Count   int `json:"count" yaml:"count"`
	Done    int `json:"done" yaml:"done"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Synced  int `json:"synced" yaml:"synced"`
	Error   int `json:"error" yaml:"error"`
}

// HasChanges returns true if the run linked at least one record.
func (s Stats) HasChanges() bool {
	return s.Done > 0
}

// HasFailures returns true if any record failed to sync or to classify.
func (s Stats) HasFailures() bool {
	return s.Failed > 0 || s.Error > 0
}

// Summary returns a human-readable summary of the stats.
func (s Stats) Summary() string {
	return fmt.Sprintf("%d records: %d done, %d failed, %d skipped, %d synced, %d error",
		s.Count, s.Done, s.Failed, s.Skipped, s.Synced, s.Error)
}
