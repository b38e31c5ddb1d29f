package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLockNotAcquired is returned when the lock could not be acquired within
// the acquisition timeout.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lock key only if it still holds our token, so a
// lock that expired and was re-acquired by another holder is never released
// by us.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker provides mutual exclusion across service instances using
// SET NX with a TTL. Acquisition is bounded: it polls until AcquireTimeout
// elapses and then fails instead of waiting indefinitely.
type Locker struct {
	client *Client

	// TTL is how long an acquired lock is held before Redis expires it
	TTL time.Duration

	// AcquireTimeout bounds how long WithLock waits for a contended lock
	AcquireTimeout time.Duration

	// RetryInterval is the polling interval while the lock is contended
	RetryInterval time.Duration
}

// NewLocker creates a Locker with sane defaults for short critical sections
func NewLocker(client *Client) *Locker {
	return &Locker{
		client:         client,
		TTL:            10 * time.Second,
		AcquireTimeout: 5 * time.Second,
		RetryInterval:  25 * time.Millisecond,
	}
}

// WithLock runs fn while holding the named lock. The lock is released on
// return; if the critical section outlives the TTL the lock expires on its
// own and the release becomes a no-op.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.New().String()
	lockKey := "lock:" + key

	deadline := time.Now().Add(l.AcquireTimeout)
	for {
		ok, err := l.client.Client().SetNX(ctx, lockKey, token, l.TTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.RetryInterval):
		}
	}

	defer func() {
		// Release errors are ignored: the TTL guarantees eventual release.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		l.client.Client().Eval(releaseCtx, releaseScript, []string{lockKey}, token).Result()
	}()

	return fn(ctx)
}
