package slotlock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisLocker(t *testing.T, ttl, timeout time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, zap.NewNop(), ttl, timeout), srv
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	locker, srv := newRedisLocker(t, 10*time.Second, 100*time.Millisecond)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, srv.Exists("slotlock:doctor:doc-1"))

	_, err = locker.Acquire(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := locker.Acquire(ctx, "doc-2")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, srv.Exists("slotlock:doctor:doc-1"))
}

func TestRedisLockerDoesNotReleaseForeignLock(t *testing.T) {
	locker, srv := newRedisLocker(t, time.Second, 100*time.Millisecond)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "doc-1")
	require.NoError(t, err)

	// lease expires and someone else takes the doctor
	srv.FastForward(2 * time.Second)
	require.NoError(t, srv.Set("slotlock:doctor:doc-1", "someone-else"))

	assert.ErrorIs(t, lease.Release(ctx), ErrLockLost)
	got, err := srv.Get("slotlock:doctor:doc-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerMutualExclusion(t *testing.T) {
	locker, _ := newRedisLocker(t, 10*time.Second, 5*time.Second)
	ctx := context.Background()

	var inside, violations int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := locker.Acquire(ctx, "doc-1")
			if !assert.NoError(t, err) {
				return
			}
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.AddInt32(&violations, 1)
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, lease.Release(ctx))
		}()
	}
	wg.Wait()

	assert.Zero(t, violations)
}
