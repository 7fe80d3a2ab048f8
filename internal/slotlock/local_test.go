package slotlock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerMutualExclusion(t *testing.T) {
	locker := NewLocalLocker(5 * time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := locker.Acquire(ctx, "doc-1")
			if !assert.NoError(t, err) {
				return
			}
			defer lease.Release(ctx)

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locker.tracked(), "idle doctors must be evicted")
}

func TestLocalLockerDoctorsAreIndependent(t *testing.T) {
	locker := NewLocalLocker(100 * time.Millisecond)
	ctx := context.Background()

	held, err := locker.Acquire(ctx, "doc-1")
	require.NoError(t, err)
	defer held.Release(ctx)

	other, err := locker.Acquire(ctx, "doc-2")
	require.NoError(t, err, "a busy doctor must not block another doctor")
	assert.Equal(t, "doc-2", other.DoctorID())
	require.NoError(t, other.Release(ctx))
}

func TestLocalLockerTimeout(t *testing.T) {
	locker := NewLocalLocker(30 * time.Millisecond)
	ctx := context.Background()

	held, err := locker.Acquire(ctx, "doc-1")
	require.NoError(t, err)

	start := time.Now()
	_, err = locker.Acquire(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	require.NoError(t, held.Release(ctx))

	again, err := locker.Acquire(ctx, "doc-1")
	require.NoError(t, err, "lock must be usable after a timed out waiter gave up")
	require.NoError(t, again.Release(ctx))
	assert.Equal(t, 0, locker.tracked())
}

func TestLocalLockerContextCancel(t *testing.T) {
	locker := NewLocalLocker(time.Minute)

	held, err := locker.Acquire(context.Background(), "doc-1")
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "doc-1")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLeaseReleaseIsIdempotent(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "doc-1")
	require.NoError(t, err)
	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	next, err := locker.Acquire(ctx, "doc-1")
	require.NoError(t, err)

	// a stale second release must not free the lock the new holder owns
	require.NoError(t, lease.Release(ctx))
	_, err = locker.Acquire(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	require.NoError(t, next.Release(ctx))
}
