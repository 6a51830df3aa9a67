package lock

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/finledger/internal/domain"
)

const (
	// DefaultExpiry is how long a lock outlives a crashed holder.
	DefaultExpiry = 30 * time.Second

	distributedRetryDelay = 10 * time.Millisecond
	distributedMaxTries   = 1 << 16
	distributedKeyPrefix  = "finledger:lock:"
)

// Distributed is a Locker backed by Redis RedLock mutexes, for running more
// than one engine instance against the same storage. The caller's context
// deadline bounds the wait.
type Distributed struct {
	rs     *redsync.Redsync
	expiry time.Duration
	logger zerolog.Logger
}

// NewDistributed creates a Distributed locker on top of an existing client.
func NewDistributed(client *redis.Client, expiry time.Duration, logger zerolog.Logger) *Distributed {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &Distributed{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		logger: logger,
	}
}

// Acquire locks every key or none.
func (d *Distributed) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)

	held := make([]*redsync.Mutex, 0, len(keys))
	for _, key := range keys {
		mutex := d.rs.NewMutex(
			distributedKeyPrefix+key,
			redsync.WithExpiry(d.expiry),
			redsync.WithTries(distributedMaxTries),
			redsync.WithRetryDelay(distributedRetryDelay),
		)

		if err := mutex.LockContext(ctx); err != nil {
			d.release(held)
			return nil, domain.Errorf(domain.Timeout, "%w: %s: %v", domain.ErrLockTimeout, key, err)
		}

		held = append(held, mutex)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		d.release(held)
	}, nil
}

// release unlocks in reverse order. It does not use the caller's context,
// which may already be done.
func (d *Distributed) release(held []*redsync.Mutex) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := len(held) - 1; i >= 0; i-- {
		if ok, err := held[i].UnlockContext(ctx); !ok || err != nil {
			d.logger.Error().
				Err(err).
				Str("lock", held[i].Name()).
				Msg("failed to release lock")
		}
	}
}
