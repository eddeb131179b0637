package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed operation keys so retried
// requests do not repeat side effects, such as re-crediting loyalty
// points when an approve call is retried.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. It reports true when
	// the key is new, false when the operation already ran.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key is currently marked.
	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}

// IdempotencyConfig controls deduplication of side effects.
type IdempotencyConfig struct {
	// TTL bounds how long a processed key suppresses a retry.
	TTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig suppresses duplicates for a day.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
