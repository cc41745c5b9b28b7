package reconcile

import (
	"context"

	"github.com/sourcegraph/conc/iter"

	"github.com/cohabs/stripesync/pkg/constants"
)

// Partitions maps each status to its classifications in local listing order.
type Partitions[T Record] map[RecordStatus][]Classification[T]

// Len returns the number of records classified as status.
func (p Partitions[T]) Len(status RecordStatus) int {
	return len(p[status])
}

// Items returns the records classified as status.
func (p Partitions[T]) Items(status RecordStatus) []T {
	items := make([]T, 0, len(p[status]))
	for _, c := range p[status] {
		items = append(items, c.Item)
	}
	return items
}

// Total returns the number of classified records across all statuses.
func (p Partitions[T]) Total() int {
	n := 0
	for _, cs := range p {
		n += len(cs)
	}
	return n
}

// Classify assigns exactly one status to every record.
//
// Completeness is checked first: a record failing the family's Validate is
// invalid whatever its link holds. Eligible records without a link are
// missing. Linked records are checked concurrently with checker, at most
// concurrency at a time; checker errors classify the record as error, not
// broken.
func (f Family[T, P]) Classify(ctx context.Context, records []T, checker Checker, concurrency int) Partitions[T] {
	if concurrency <= 0 {
		concurrency = constants.MaxConcurrentRequests
	}

	mapper := iter.Mapper[T, Classification[T]]{MaxGoroutines: concurrency}
	results := mapper.Map(records, func(item *T) Classification[T] {
		return f.classifyOne(ctx, *item, checker)
	})

	parts := make(Partitions[T], len(Statuses))
	for _, status := range Statuses {
		parts[status] = []Classification[T]{}
	}
	for _, c := range results {
		parts[c.Status] = append(parts[c.Status], c)
	}
	return parts
}

func (f Family[T, P]) classifyOne(ctx context.Context, item T, checker Checker) Classification[T] {
	if ok, msg := f.eligible(item); !ok {
		return Classification[T]{Item: item, Status: StatusInvalid, Message: msg}
	}

	link := f.Link(item)
	if link == "" {
		return Classification[T]{Item: item, Status: StatusMissing}
	}

	live, err := checker.Check(ctx, link)
	switch {
	case err != nil:
		return Classification[T]{Item: item, Status: StatusError, Message: err.Error()}
	case !live:
		return Classification[T]{Item: item, Status: StatusBroken, Message: brokenMessage(f.Resource)}
	default:
		return Classification[T]{Item: item, Status: StatusSynced}
	}
}
