package slotlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockLost is returned by Release when the lease expired and another
// holder took the key before we released it.
var ErrLockLost = errors.New("slot lock expired before release")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a distributed Locker for replicated deployments. The key
// expires after ttl so a crashed holder cannot lock a doctor out forever;
// ttl must exceed the longest critical section.
type RedisLocker struct {
	client  redis.UniversalClient
	log     *zap.Logger
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	retry   time.Duration
}

func NewRedisLocker(client redis.UniversalClient, log *zap.Logger, ttl, timeout time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  client,
		log:     log,
		prefix:  "slotlock:doctor:",
		ttl:     ttl,
		timeout: timeout,
		retry:   10 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, doctorID string) (*Lease, error) {
	key := l.prefix + doctorID
	token := uuid.NewString()
	deadline := time.Now().Add(l.timeout)
	wait := l.retry

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.log.Error("slot lock SETNX failed", zap.String("doctorId", doctorID), zap.Error(err))
			return nil, fmt.Errorf("acquiring slot lock: %w", err)
		}
		if ok {
			return newLease(doctorID, func(ctx context.Context) error {
				return l.release(ctx, key, token)
			}), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrLockTimeout
		}
		if wait > remaining {
			wait = remaining
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if wait < 200*time.Millisecond {
			wait *= 2
		}
	}
}

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	// Release must run even if the request context is already cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		l.log.Error("slot lock release failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("releasing slot lock: %w", err)
	}
	if n == 0 {
		l.log.Warn("slot lock was not owned at release", zap.String("key", key))
		return ErrLockLost
	}
	return nil
}
