package reconcile

import "context"

// EventKind is the presentation class of a report event.
type EventKind string

// Event kinds.
const (
	EventStart    EventKind = "start"
	EventInfo     EventKind = "info"
	EventWarning  EventKind = "warning"
	EventDanger   EventKind = "danger"
	EventSuccess  EventKind = "success"
	EventFailure  EventKind = "failure"
	EventComplete EventKind = "complete"
)

// Event is one progress entry of a run.
type Event struct {
	Title       string
	Description string
	Kind        EventKind
	Columns     []string
	Rows        [][]string
}

// HasData returns true if the event carries a table.
func (e Event) HasData() bool {
	return len(e.Columns) > 0
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(ctx context.Context, event Event)
}

// ReporterFunc allows functions to implement Reporter.
type ReporterFunc func(context.Context, Event)

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, event Event) {
	f(ctx, event)
}

// NopReporter discards every event.
var NopReporter Reporter = ReporterFunc(func(context.Context, Event) {})
