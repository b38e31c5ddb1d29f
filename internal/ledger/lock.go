package ledger

import (
	"context"
	"sync"
)

// Locker serializes work on a key. Gateway services use it to guarantee a
// transaction is captured exactly once under concurrent webhook retries. The
// Redis-backed implementation lives in pkg/redis.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// LocalLocker is a process-local Locker backed by per-key mutexes. It is the
// default when Redis is disabled; it does not protect multi-instance
// deployments.
type LocalLocker struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

// NewLocalLocker creates a new process-local locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

// WithLock runs fn while holding the mutex for key
func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, exists := l.locks[key]
	if !exists {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
