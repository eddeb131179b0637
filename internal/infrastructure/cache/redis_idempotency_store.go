package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retailbill/backend/internal/domain/shared"
)

const settlementKeyPrefix = "settlement:idempotency:"

// RedisIdempotencyStore shares settlement keys across instances through
// Redis, so concurrent replicas agree on which refunds have been paid.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// RedisConfig holds the connection parameters for the store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore connects to Redis and verifies the server
// is reachable before handing the store out.
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{client: client}, nil
}

// MarkProcessed claims the key atomically with SETNX, so only one
// replica wins even under concurrent settlement attempts. It reports
// true when this call claimed the key.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := s.client.SetNX(ctx, settlementKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark settlement key: %w", err)
	}
	return claimed, nil
}

// IsProcessed reports whether the key is currently held.
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, settlementKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check settlement key: %w", err)
	}
	return n > 0, nil
}

// Close releases the Redis client.
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
