package reconcile

import (
	"context"
	"fmt"

	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/logging"
)

// Synchronizer creates the remote counterpart of one record and links it.
type Synchronizer[T Record, P any] struct {
	family      Family[T, P]
	store       Store[T]
	remote      Remote[P]
	idempotency bool
}

// NewSynchronizer returns a Synchronizer for family.
func NewSynchronizer[T Record, P any](family Family[T, P], store Store[T], remote Remote[P], idempotencyKeys bool) *Synchronizer[T, P] {
	return &Synchronizer[T, P]{
		family:      family,
		store:       store,
		remote:      remote,
		idempotency: idempotencyKeys,
	}
}

// Sync runs one synchronization attempt for record.
//
// Without commit it returns a skipped outcome and touches nothing. With
// commit it creates the remote resource, writes its id onto the record,
// re-reads the record by that id and returns done. Any failing step yields a
// failed outcome carrying the error message; a remote resource created
// before a failing local step stays unlinked.
func (s *Synchronizer[T, P]) Sync(ctx context.Context, record T, commit bool) Outcome[T] {
	id := record.RecordID()
	if !commit {
		return Outcome[T]{ID: id, Status: OutcomeSkipped, Target: record}
	}

	ctx = logging.WithRecord(ctx, id)
	logger := logging.Ctx(ctx)

	updated, err := s.execute(ctx, record)
	if err != nil {
		logger.Warn().Err(err).Msg("Record sync failed")
		return Outcome[T]{ID: id, Status: OutcomeFailed, Target: record, Message: err.Error()}
	}

	logger.Debug().Str("remote_id", s.family.Link(updated)).Msg("Record linked")
	return Outcome[T]{ID: updated.RecordID(), Status: OutcomeDone, Target: updated}
}

func (s *Synchronizer[T, P]) execute(ctx context.Context, record T) (T, error) {
	var zero T
	id := record.RecordID()

	var opts CreateOptions
	if s.idempotency {
		opts.IdempotencyKey = IdempotencyKey(s.remote.Kind(), id)
	}

	created, err := s.remote.Create(ctx, s.family.Payload(record), opts)
	if err != nil {
		return zero, err
	}

	if err := s.store.UpdateLink(ctx, id, created.ID); err != nil {
		return zero, err
	}

	updated, err := s.store.FindByRemoteID(ctx, created.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			return zero, fmt.Errorf("%s to update with id: %s was not found", s.family.Entity, id)
		}
		return zero, err
	}
	return updated, nil
}

// IdempotencyKey derives the remote idempotency key of a local record.
func IdempotencyKey(kind, id string) string {
	return "stripesync-" + kind + "-" + id
}
