package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/retailbill/backend/internal/infrastructure/cache"
)

// brokenStore simulates an unreachable Redis.
type brokenStore struct{}

func (brokenStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenStore) IsProcessed(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenStore) Close() error { return nil }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("first delivery is processed, redelivery is dropped", func(t *testing.T) {
		inner := newRecordingHandler("sales_return.cancelled")
		h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())

		evt := newCancelledEvent()
		require.NoError(t, h.Handle(ctx, evt))
		require.NoError(t, h.Handle(ctx, evt))
		require.NoError(t, h.Handle(ctx, evt))

		assert.Equal(t, 1, inner.count())

		stats := h.Metrics().Stats()
		assert.EqualValues(t, 1, stats.EventsProcessed)
		assert.EqualValues(t, 2, stats.EventsDuplicate)
		assert.Zero(t, stats.EventsFailed)
	})

	t.Run("distinct events both get through", func(t *testing.T) {
		inner := newRecordingHandler("sales_return.cancelled")
		h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())

		require.NoError(t, h.Handle(ctx, newCancelledEvent()))
		require.NoError(t, h.Handle(ctx, newCancelledEvent()))

		assert.Equal(t, 2, inner.count())
	})

	t.Run("store outage falls through to processing", func(t *testing.T) {
		inner := newRecordingHandler("sales_return.cancelled")
		h := NewIdempotentHandler(inner, brokenStore{}, zap.NewNop())

		evt := newCancelledEvent()
		require.NoError(t, h.Handle(ctx, evt))
		require.NoError(t, h.Handle(ctx, evt))

		// Without a reachable store every delivery is processed.
		assert.Equal(t, 2, inner.count())
	})

	t.Run("handler failure is counted and redelivery stays suppressed", func(t *testing.T) {
		inner := newRecordingHandler("sales_return.cancelled")
		inner.err = errors.New("restock rejected")
		h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())

		evt := newCancelledEvent()
		require.Error(t, h.Handle(ctx, evt))

		// The mark stays, so an immediate redelivery is a duplicate.
		require.NoError(t, h.Handle(ctx, evt))
		assert.Equal(t, 1, inner.count())

		stats := h.Metrics().Stats()
		assert.EqualValues(t, 1, stats.EventsFailed)
		assert.EqualValues(t, 1, stats.EventsDuplicate)
	})

	t.Run("expired key allows reprocessing", func(t *testing.T) {
		inner := newRecordingHandler("sales_return.cancelled")
		h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{TTL: time.Millisecond, Enabled: true}),
		)

		evt := newCancelledEvent()
		require.NoError(t, h.Handle(ctx, evt))
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, h.Handle(ctx, evt))

		assert.Equal(t, 2, inner.count())
	})

	t.Run("disabled config bypasses the store", func(t *testing.T) {
		inner := newRecordingHandler("sales_return.cancelled")
		h := NewIdempotentHandler(inner, brokenStore{}, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}),
		)

		evt := newCancelledEvent()
		require.NoError(t, h.Handle(ctx, evt))
		require.NoError(t, h.Handle(ctx, evt))

		assert.Equal(t, 2, inner.count())
	})

	t.Run("shared metrics aggregate across handlers", func(t *testing.T) {
		metrics := &IdempotencyMetrics{}
		store := cache.NewInMemoryIdempotencyStore()
		h1 := NewIdempotentHandler(newRecordingHandler(), store, zap.NewNop(), WithIdempotencyMetrics(metrics))
		h2 := NewIdempotentHandler(newRecordingHandler(), store, zap.NewNop(), WithIdempotencyMetrics(metrics))

		require.NoError(t, h1.Handle(ctx, newCancelledEvent()))
		require.NoError(t, h2.Handle(ctx, newCancelledEvent()))

		assert.EqualValues(t, 2, metrics.Stats().EventsProcessed)
	})

	t.Run("event types come from the wrapped handler", func(t *testing.T) {
		inner := newRecordingHandler("sales_return.cancelled", "sales_return.rejected")
		h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())

		assert.Equal(t, []string{"sales_return.cancelled", "sales_return.rejected"}, h.EventTypes())
	})
}
