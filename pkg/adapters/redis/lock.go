package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

const lockPollInterval = 50 * time.Millisecond

// unlockScript deletes the lock only when the caller's token still owns
// it, so a holder whose TTL already expired cannot release a successor's
// lock.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker implements ports.DistributedLocker with SET NX and a Lua
// compare-and-delete release.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker wraps an existing client.
func NewLocker(client *backend.Client, opts ...Option) *Locker {
	cfg := applyOptions(opts)
	return &Locker{client: client, prefix: cfg.prefix}
}

// Lock acquires the lock for key, polling until the context ends. The ttl
// bounds how long a crashed holder can wedge the key.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if acquired {
			return func(ctx context.Context) error {
				return unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
