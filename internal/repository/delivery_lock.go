package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryLock serialises concurrent deliveries of the same checkout
// session across processes. It narrows the check-then-insert window; the
// unique index on orders.stripe_session_id remains the real guarantee.
type DeliveryLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const deliveryLockPrefix = "marketplace:delivery:"

type redisDeliveryLockImpl struct {
	rdb redis.UniversalClient
}

func NewRedisDeliveryLock(rdb redis.UniversalClient) DeliveryLock {
	return &redisDeliveryLockImpl{rdb: rdb}
}

func (l *redisDeliveryLockImpl) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, deliveryLockPrefix+key, "1", ttl).Result()
}

func (l *redisDeliveryLockImpl) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, deliveryLockPrefix+key).Err()
}

type noopDeliveryLockImpl struct{}

// NewNoopDeliveryLock always grants the lock.
func NewNoopDeliveryLock() DeliveryLock {
	return noopDeliveryLockImpl{}
}

func (noopDeliveryLockImpl) Acquire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (noopDeliveryLockImpl) Release(context.Context, string) error {
	return nil
}
