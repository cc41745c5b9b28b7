// Package lock guards commit runs with a distributed lock so that two
// operators never create Stripe resources for the same records at once.
package lock

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/logging"
)

// Locker acquires the run lock.
type Locker interface {
	// Acquire takes the lock and returns the function releasing it. A held
	// lock fails with errors.ErrLockNotObtained.
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
	Close() error
}

// Config configures the Redis locker.
type Config struct {
	Addr     string
	Password string
	Key      string
	TTL      time.Duration
}

// New returns a Redis backed Locker, or a no-op Locker when no address is
// configured.
func New(ctx context.Context, cfg Config) (Locker, error) {
	if cfg.Addr == "" {
		return Nop{}, nil
	}
	if cfg.Key == "" {
		cfg.Key = constants.RunLockKey
	}
	if cfg.TTL <= 0 {
		cfg.TTL = constants.RunLockTTL
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, constants.DatabasePingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.WrapResource("ping", "redis", cfg.Addr, err)
	}

	return &Redis{
		rdb:    rdb,
		locker: redislock.New(rdb),
		key:    cfg.Key,
		ttl:    cfg.TTL,
	}, nil
}

// Redis is a Locker backed by a Redis lock key.
type Redis struct {
	rdb    *redis.Client
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// Acquire implements Locker.
func (r *Redis) Acquire(ctx context.Context) (func(context.Context) error, error) {
	l, err := r.locker.Obtain(ctx, r.key, r.ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, errors.ErrLockNotObtained
	}
	if err != nil {
		return nil, errors.WrapResource("obtain", "lock", r.key, err)
	}

	logging.FromContext(ctx).Debug().Str("key", r.key).Dur("ttl", r.ttl).Msg("Run lock obtained")
	return func(ctx context.Context) error {
		if err := l.Release(ctx); err != nil && err != redislock.ErrLockNotHeld {
			return errors.WrapResource("release", "lock", r.key, err)
		}
		return nil
	}, nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Nop is a Locker that always succeeds.
type Nop struct{}

// Acquire implements Locker.
func (Nop) Acquire(context.Context) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// Close implements Locker.
func (Nop) Close() error { return nil }
