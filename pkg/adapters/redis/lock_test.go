package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/redis"
)

func TestLockBlocksSecondHolder(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "session-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLockDifferentKeysIndependent(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "session-a", time.Minute)
	require.NoError(t, err)

	unlockB, err := locker.Lock(ctx, "session-b", time.Minute)
	require.NoError(t, err, "a lock on one session must not block another")

	require.NoError(t, unlockA(ctx))
	require.NoError(t, unlockB(ctx))
}

func TestUnlockIgnoresStolenLock(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "session-1", 50*time.Millisecond)
	require.NoError(t, err)

	// Holder A's TTL lapses and B takes the lock over.
	mr.FastForward(100 * time.Millisecond)

	unlockB, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)

	// The stale release must not free B's lock.
	require.NoError(t, unlockA(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "session-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "B should still hold the lock after A's stale unlock")

	require.NoError(t, unlockB(ctx))

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLockWithCustomPrefix(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, redis.WithPrefix("custom:"))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	assert.True(t, mr.Exists("custom:lock:session-1"))
}
