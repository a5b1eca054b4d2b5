package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/redis"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:", redis.WithPollInterval(10*time.Millisecond))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "resource1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("test:lock:resource1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:resource1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_TryLockContention(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "sess", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "sess", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	require.NoError(t, unlock(ctx))

	_, ok, err = locker.TryLock(ctx, "sess", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_LockHonorsContext(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:", redis.WithPollInterval(10*time.Millisecond))

	_, ok, err := locker.TryLock(context.Background(), "held", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "held", 5*time.Second)
	assert.Error(t, err)
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	staleUnlock, ok, err := locker.TryLock(ctx, "sess", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "sess", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, staleUnlock(ctx))
	assert.True(t, mr.Exists("test:lock:sess"), "expired holder must not release the new holder's lock")
}
