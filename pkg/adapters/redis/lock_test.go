package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lao/pkg/adapters/redis"
	"github.com/aretw0/lao/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunRunLockerContract(t, redis.NewLocker(client, "test:"))
}

func TestRedisLocker_TryLockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:lock:")
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "resource1", 5*time.Second)
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:lock:lock:resource1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:lock:resource1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	replica1 := redis.NewLocker(client, "test:lock:")
	replica2 := redis.NewLocker(client, "test:lock:") // Same prefix -> contention
	ctx := context.Background()

	unlock1, err := replica1.TryLock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	_, err = replica2.TryLock(ctx, "shared", 5*time.Second)
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	require.NoError(t, unlock1(ctx))

	unlock2, err := replica2.TryLock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestRedisLocker_Expiry(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	stale, err := locker.TryLock(ctx, "crashed-owner", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := locker.TryLock(ctx, "crashed-owner", time.Second)
	require.NoError(t, err, "expired lock can be taken over")

	// The stale owner's unlock must not release the new owner's lock.
	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("test:lock:crashed-owner"))
	require.NoError(t, unlock(ctx))
}
