package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/shared"
)

// InMemoryEventBus delivers domain events to subscribed handlers in
// process. Delivery is synchronous: Publish returns once every handler
// has seen the event, so callers can publish inside a request without
// racing their own transaction.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
}

func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish fans each event out to its handlers. A failing handler is
// logged and does not stop delivery to the rest; domain events are
// notifications, not transactional steps.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, evt := range events {
		for _, h := range b.registry.GetHandlers(evt.EventType()) {
			if err := b.deliver(ctx, h, evt); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", evt.EventType()),
					zap.String("event_id", evt.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler. With no explicit event types the
// handler's own EventTypes decides; an empty list there subscribes it
// to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("Event handler unsubscribed")
}

func (b *InMemoryEventBus) Start(_ context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	b.logger.Info("Event bus started",
		zap.Int("handlers", len(b.registry.AllHandlers())),
	)
	return nil
}

func (b *InMemoryEventBus) Stop(_ context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	b.logger.Info("Event bus stopped")
	return nil
}

// deliver invokes a single handler, converting a panic into an error
// so one broken handler cannot take down the publisher.
func (b *InMemoryEventBus) deliver(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Handle(ctx, evt)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
