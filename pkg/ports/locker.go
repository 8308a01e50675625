package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned by TryLock when another owner holds the lock.
var ErrLockHeld = errors.New("lock held by another owner")

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// RunLocker extends the in-process run guard across replicas.
type RunLocker interface {
	// TryLock acquires the lock for key without waiting. It returns
	// ErrLockHeld when the key is already locked. The lock expires after ttl
	// unless the returned UnlockFunc releases it first.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
