package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLocked reports that another worker holds the lock.
	ErrLocked = errors.New("jobs: lock held elsewhere")
	// ErrLockLost reports that a held lease expired before it was refreshed.
	ErrLockLost = errors.New("jobs: lock lease lost")
)

// Lease is a held lock. Long runs call Refresh between steps to keep it.
type Lease interface {
	Refresh(ctx context.Context) error
	Release()
}

// Locker serialises job runs across worker replicas.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// RedisLocker implements Locker with redislock.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker wraps a redis client.
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

// Acquire obtains key without retrying.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, err
	}
	return &redisLease{lock: lock, ttl: ttl, ctx: context.WithoutCancel(ctx)}, nil
}

type redisLease struct {
	lock *redislock.Lock
	ttl  time.Duration
	ctx  context.Context
}

// Refresh extends the lease by its original ttl.
func (l *redisLease) Refresh(ctx context.Context) error {
	err := l.lock.Refresh(ctx, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrLockLost
	}
	return err
}

// Release is safe to call after the lease has expired.
func (l *redisLease) Release() {
	_ = l.lock.Release(l.ctx)
}

type noopLease struct{}

func (noopLease) Refresh(context.Context) error { return nil }
func (noopLease) Release() {}
