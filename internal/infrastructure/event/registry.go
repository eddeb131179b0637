package event

import (
	"sync"

	"github.com/retailbill/backend/internal/domain/shared"
)

// HandlerRegistry tracks which handlers want which event types. A
// handler registered without types lands in the catch-all list and
// sees every event.
type HandlerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	catchAll []shared.EventHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		byType: make(map[string][]shared.EventHandler),
	}
}

func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.catchAll = append(r.catchAll, handler)
		return
	}
	for _, t := range eventTypes {
		r.byType[t] = append(r.byType[t], handler)
	}
}

// Unregister removes the handler from every list it appears in.
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.catchAll = without(r.catchAll, handler)
	for t, handlers := range r.byType {
		if remaining := without(handlers, handler); len(remaining) == 0 {
			delete(r.byType, t)
		} else {
			r.byType[t] = remaining
		}
	}
}

// GetHandlers returns the handlers for an event type, type-specific
// ones first, then the catch-all handlers.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(r.catchAll))
	out = append(out, typed...)
	out = append(out, r.catchAll...)
	return out
}

// AllHandlers returns every distinct registered handler.
func (r *HandlerRegistry) AllHandlers() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]struct{})
	var out []shared.EventHandler
	add := func(handlers []shared.EventHandler) {
		for _, h := range handlers {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	add(r.catchAll)
	for _, handlers := range r.byType {
		add(handlers)
	}
	return out
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := handlers[:0:0]
	for _, h := range handlers {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}
