package reconcile_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// tenant is a minimal local record with one required cross-link.
type tenant struct {
	ID     string
	Link   string
	House  string
	Status string
}

func (t tenant) RecordID() string { return t.ID }

type payload struct {
	Name    string
	LocalID string
}

func tenantFamily() reconcile.Family[tenant, payload] {
	return reconcile.Family[tenant, payload]{
		Name:     "tenants",
		Entity:   "Tenant",
		Resource: "Customer",
		Validate: func(t tenant) (bool, string) {
			return reconcile.MissingLinks(reconcile.LinkCheck{Field: "houseId", Value: t.House})
		},
		Link:    func(t tenant) string { return t.Link },
		Payload: func(t tenant) payload { return payload{Name: "tenant " + t.ID, LocalID: t.ID} },
		Columns: []string{"id", "link"},
		Row:     func(t tenant) []string { return []string{t.ID, t.Link} },
	}
}

// fakeStore is an in-memory Store with call counters.
type fakeStore struct {
	mu        sync.Mutex
	records   []tenant
	listErr   error
	updateErr error
	findErr   error
	lost      bool // FindByRemoteID never finds the updated row

	lists   atomic.Int32
	updates atomic.Int32
	finds   atomic.Int32
}

func newFakeStore(records ...tenant) *fakeStore {
	return &fakeStore{records: records}
}

func (s *fakeStore) ListAll(context.Context) ([]tenant, error) {
	s.lists.Add(1)
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tenant, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *fakeStore) FindByRemoteID(_ context.Context, remoteID string) (tenant, error) {
	s.finds.Add(1)
	if s.findErr != nil {
		return tenant{}, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lost {
		for _, r := range s.records {
			if r.Link == remoteID {
				return r, nil
			}
		}
	}
	return tenant{}, errors.NewNotFoundError("tenants", remoteID)
}

func (s *fakeStore) UpdateLink(_ context.Context, id, remoteID string) error {
	s.updates.Add(1)
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Link = remoteID
			return nil
		}
	}
	return errors.NewNotFoundError("tenants", id)
}

func (s *fakeStore) calls() int {
	return int(s.lists.Load() + s.updates.Load() + s.finds.Load())
}

// fakeRemote is an in-memory Remote with call counters.
type fakeRemote struct {
	mu        sync.Mutex
	resources map[string]reconcile.Resource
	failing   map[string]error // Retrieve errors per id
	createErr error
	listErr   error
	keys      []string

	seq       atomic.Int32
	creates   atomic.Int32
	retrieves atomic.Int32
	lists     atomic.Int32
}

func newFakeRemote(resources ...reconcile.Resource) *fakeRemote {
	r := &fakeRemote{resources: map[string]reconcile.Resource{}, failing: map[string]error{}}
	for _, res := range resources {
		r.resources[res.ID] = res
	}
	return r
}

func (r *fakeRemote) Kind() string { return "customer" }

func (r *fakeRemote) List(_ context.Context, limit int) ([]reconcile.Resource, error) {
	r.lists.Add(1)
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reconcile.Resource, 0, len(r.resources))
	for _, res := range r.resources {
		if len(out) == limit {
			break
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *fakeRemote) Retrieve(_ context.Context, id string) (reconcile.Resource, error) {
	r.retrieves.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failing[id]; ok {
		return reconcile.Resource{}, err
	}
	res, ok := r.resources[id]
	if !ok {
		return reconcile.Resource{}, errors.NewNotFoundError("customer", id)
	}
	return res, nil
}

func (r *fakeRemote) Create(_ context.Context, _ payload, opts reconcile.CreateOptions) (reconcile.Resource, error) {
	r.creates.Add(1)
	if r.createErr != nil {
		return reconcile.Resource{}, r.createErr
	}
	id := fmt.Sprintf("cus_new_%d", r.seq.Add(1))
	res := reconcile.Resource{ID: id}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[id] = res
	if opts.IdempotencyKey != "" {
		r.keys = append(r.keys, opts.IdempotencyKey)
	}
	return res, nil
}

func (r *fakeRemote) calls() int {
	return int(r.creates.Load() + r.retrieves.Load() + r.lists.Load())
}

// recorder captures report events.
type recorder struct {
	mu     sync.Mutex
	events []reconcile.Event
}

func (r *recorder) Report(_ context.Context, e reconcile.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Title
	}
	return out
}

func (r *recorder) find(title string) (reconcile.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Title == title {
			return e, true
		}
	}
	return reconcile.Event{}, false
}
