package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds every store call so an unreachable Redis fails the
// operation instead of hanging a request handler.
const redisOpTimeout = 2 * time.Second

// RedisStore is a Store backed by Redis, for deployments running more than
// one instance. INCR and DEL give the required atomicity natively.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, redisOpTimeout)
}

// Get returns the value for key, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		recordOp("get", start, ErrNotFound)
		return "", ErrNotFound
	}
	if err != nil {
		recordOp("get", start, err)
		return "", fmt.Errorf("redis get: %w", err)
	}

	recordOp("get", start, nil)
	return value, nil
}

// Set stores value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	start := time.Now()
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.client.Set(ctx, key, value, ttl).Err()
	recordOp("set", start, err)
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Increment atomically increments the counter at key and returns the new
// value. The TTL is attached only when the key has none yet, so later
// increments never extend the window.
func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		recordOp("increment", start, err)
		return 0, fmt.Errorf("redis incr: %w", err)
	}

	recordOp("increment", start, nil)
	return incr.Val(), nil
}

// Delete removes key and reports whether it existed.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	deleted, err := s.client.Del(ctx, key).Result()
	recordOp("delete", start, err)
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return deleted > 0, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
