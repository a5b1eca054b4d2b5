package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates access to a session across replicas.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)

	// TryLock acquires the lock only if it is free. ok is false when another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock UnlockFunc, ok bool, err error)
}
