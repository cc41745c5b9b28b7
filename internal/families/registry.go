package families

import (
	"github.com/cohabs/stripesync/internal/billing"
	"github.com/cohabs/stripesync/internal/store"
	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// Driver is a family driver seen without its type parameters.
type Driver interface {
	reconcile.Runner
	reconcile.Inspector
}

// Registry builds the drivers of every family over one store and one
// Stripe client.
type Registry struct {
	drivers map[string]Driver
}

// NewRegistry binds each family to its repository and remote. Retrieve
// probes go through a TTL cache.
func NewRegistry(st *store.Store, client *billing.Client, opts ...reconcile.Option) *Registry {
	customers := billing.NewCachedRemote[billing.CustomerPayload](client.Customers(), constants.CacheTTL, constants.CacheCleanupInterval)
	products := billing.NewCachedRemote[billing.ProductPayload](client.Products(), constants.CacheTTL, constants.CacheCleanupInterval)
	subscriptions := billing.NewCachedRemote[billing.SubscriptionPayload](client.Subscriptions(), constants.CacheTTL, constants.CacheCleanupInterval)

	return &Registry{drivers: map[string]Driver{
		Users:  reconcile.NewDriver(UserFamily(), st.Users, customers, opts...),
		Rooms:  reconcile.NewDriver(RoomFamily(), st.Rooms, products, opts...),
		Leases: reconcile.NewDriver(LeaseFamily(), st.Leases, subscriptions, opts...),
	}}
}

// Get returns the driver of a family or Stripe resource name.
func (r *Registry) Get(name string) (Driver, error) {
	family, ok := Resolve(name)
	if !ok {
		return nil, errors.NewValidationError("family", name, "must be one of: users, rooms, leases")
	}
	return r.drivers[family], nil
}

// Runners returns every driver in run order.
func (r *Registry) Runners() []reconcile.Runner {
	out := make([]reconcile.Runner, 0, len(Names))
	for _, name := range Names {
		out = append(out, r.drivers[name])
	}
	return out
}

// Inspectors returns every driver in run order.
func (r *Registry) Inspectors() []reconcile.Inspector {
	out := make([]reconcile.Inspector, 0, len(Names))
	for _, name := range Names {
		out = append(out, r.drivers[name])
	}
	return out
}
