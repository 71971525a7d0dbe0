package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates session access across engine replicas so
// no two steps of the same session ever execute concurrently. Keys are
// session IDs.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired, the context is
	// canceled, or the attempt fails. The returned UnlockFunc MUST be
	// called to release the lock; ttl bounds how long a crashed holder
	// can wedge the session.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
