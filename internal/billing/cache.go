package billing

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/cohabs/stripesync/pkg/reconcile"
)

// CachedRemote caches successful Retrieve results of a remote, so repeated
// runs in one process (interactive mode, check followed by sync) probe each
// live resource once per TTL.
//
// Only live resources are cached. Not-found and deleted answers are always
// fetched again so that a freshly created resource is never hidden.
type CachedRemote[P any] struct {
	reconcile.Remote[P]
	store *gocache.Cache
}

// NewCachedRemote wraps remote with a TTL cache.
func NewCachedRemote[P any](remote reconcile.Remote[P], ttl, cleanup time.Duration) *CachedRemote[P] {
	return &CachedRemote[P]{
		Remote: remote,
		store:  gocache.New(ttl, cleanup),
	}
}

// Retrieve implements reconcile.Remote.
func (r *CachedRemote[P]) Retrieve(ctx context.Context, id string) (reconcile.Resource, error) {
	if v, ok := r.store.Get(id); ok {
		return v.(reconcile.Resource), nil
	}
	res, err := r.Remote.Retrieve(ctx, id)
	if err != nil {
		return res, err
	}
	if !res.Deleted && res.ID != "" {
		r.store.Set(id, res, gocache.DefaultExpiration)
	}
	return res, nil
}

// Create implements reconcile.Remote and caches the new resource.
func (r *CachedRemote[P]) Create(ctx context.Context, payload P, opts reconcile.CreateOptions) (reconcile.Resource, error) {
	res, err := r.Remote.Create(ctx, payload, opts)
	if err == nil && res.ID != "" {
		r.store.Set(res.ID, res, gocache.DefaultExpiration)
	}
	return res, err
}

// Len returns the number of cached resources.
func (r *CachedRemote[P]) Len() int {
	return r.store.ItemCount()
}

// Flush empties the cache.
func (r *CachedRemote[P]) Flush() {
	r.store.Flush()
}
