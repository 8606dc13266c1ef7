package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "farmdesk:lock:"

// Redis is a Locker backed by bsm/redislock.
type Redis struct {
	client *redis.Client
	locker *redislock.Client
}

// NewRedis connects to the Redis instance at url and verifies connectivity.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, locker: redislock.New(client)}, nil
}

// Obtain claims key for ttl without retrying.
func (r *Redis) Obtain(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	l, err := r.locker.Obtain(ctx, keyNamespace+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := l.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release redis lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// Close closes the underlying Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
