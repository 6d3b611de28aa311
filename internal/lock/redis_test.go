package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestLockIsExclusive(t *testing.T) {
	_, client := setupLock(t)
	ctx := context.Background()

	a := NewRedisLock(client)
	b := NewRedisLock(client)

	ok, err := a.Lock(ctx, "schedule:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Lock(ctx, "schedule:s1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Unlock(ctx, "schedule:s1"))

	ok, err = b.Lock(ctx, "schedule:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockLeavesForeignLockAlone(t *testing.T) {
	mr, client := setupLock(t)
	ctx := context.Background()

	a := NewRedisLock(client)
	b := NewRedisLock(client)

	ok, err := a.Lock(ctx, "schedule:s1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = b.Lock(ctx, "schedule:s1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, a.Unlock(ctx, "schedule:s1"))
	assert.True(t, mr.Exists("lock:schedule:s1"), "a stale holder must not release the new owner's lock")
}

func TestUnlockWithoutLockIsNoop(t *testing.T) {
	_, client := setupLock(t)
	assert.NoError(t, NewRedisLock(client).Unlock(context.Background(), "nothing"))
}
