// Package lock provides mutual exclusion for automation jobs, either within
// one process or across replicas sharing a Redis instance.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotObtained is returned when the key is already held by someone else.
var ErrNotObtained = errors.New("lock not obtained")

// ReleaseFunc frees a previously obtained lock.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out named, expiring locks.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocal builds an in-process locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]time.Time), now: time.Now}
}

// Obtain claims key until it is released or ttl elapses.
func (l *Local) Obtain(_ context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return nil, ErrNotObtained
	}
	expires := now.Add(ttl)
	l.held[key] = expires

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if current, ok := l.held[key]; ok && current.Equal(expires) {
			delete(l.held, key)
		}
		return nil
	}, nil
}
