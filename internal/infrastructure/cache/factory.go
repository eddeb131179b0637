package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/retailbill/backend/internal/infrastructure/config"
)

// IdempotencyStoreFactory picks the settlement idempotency backend at
// startup: Redis when reachable, otherwise an in-memory store if the
// deployment allows it.
type IdempotencyStoreFactory struct {
	redisConfig config.RedisConfig
	logger      *zap.Logger
	allowMemory bool
}

type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades
// to the in-memory store instead of failing startup. Production should
// pass false: local keys cannot stop a second replica from paying the
// same refund.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.allowMemory = allow }
}

func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
		allowMemory: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore connects to Redis, falling back to the in-memory store
// when that is permitted.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return store, nil
	}

	if !f.allowMemory {
		return nil, fmt.Errorf("Redis required for settlement idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
		"replicas will not share settlement state",
		zap.Error(err))
	return f.CreateInMemoryStore(), nil
}

// CreateInMemoryStore builds the process-local store directly, used by
// tests and deployments that run without Redis.
func (f *IdempotencyStoreFactory) CreateInMemoryStore() shared.IdempotencyStore {
	return NewInMemoryIdempotencyStore()
}
