package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	redislib "github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired the mutex could not be taken within the acquire window
var ErrLockNotAcquired = errors.New("cart lock not acquired")

const (
	lockExpiry     = 8 * time.Second
	lockRetryDelay = 150 * time.Millisecond
)

// CartLocker per-cart-key distributed mutex backed by redsync. Acquisition
// blocks up to acquireTimeout; writers for the same cart key serialize,
// writers for different keys do not contend.
type CartLocker struct {
	rs             *redsync.Redsync
	acquireTimeout time.Duration
}

// NewCartLocker creates a locker over the given Redis client
func NewCartLocker(client *redislib.Client, acquireTimeout time.Duration) *CartLocker {
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	pool := goredis.NewPool(client)
	return &CartLocker{
		rs:             redsync.New(pool),
		acquireTimeout: acquireTimeout,
	}
}

// Lock acquires the mutex for the given cart key and returns its release
// function. Returns ErrLockNotAcquired when the window elapses.
func (l *CartLocker) Lock(ctx context.Context, name string) (func() error, error) {
	tries := int(l.acquireTimeout/lockRetryDelay) + 1
	mutex := l.rs.NewMutex(
		buildKey("lock:"+name),
		redsync.WithExpiry(lockExpiry),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(lockRetryDelay),
	)

	lockCtx, cancel := context.WithTimeout(ctx, l.acquireTimeout)
	defer cancel()

	if err := mutex.LockContext(lockCtx); err != nil {
		return nil, errors.Join(ErrLockNotAcquired, err)
	}
	return func() error {
		_, err := mutex.Unlock()
		return err
	}, nil
}
