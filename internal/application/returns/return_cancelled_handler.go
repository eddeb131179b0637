package returns

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
)

// ReturnCancelledHandler handles SalesReturnCancelledEvent. Cancelling
// an already-approved return never reverses the applied settlement
// automatically; this handler surfaces those cases so staff perform the
// compensating stock and points adjustments manually.
type ReturnCancelledHandler struct {
	logger *zap.Logger
}

// NewReturnCancelledHandler creates a new handler for cancelled returns
func NewReturnCancelledHandler(logger *zap.Logger) *ReturnCancelledHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReturnCancelledHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReturnCancelledHandler) EventTypes() []string {
	return []string{returns.EventTypeSalesReturnCancelled}
}

// Handle processes a cancelled-return event
func (h *ReturnCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelled, ok := event.(*returns.SalesReturnCancelledEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			returns.EventTypeSalesReturnCancelled, event.EventType())
	}

	if !cancelled.WasApproved {
		h.logger.Debug("return cancelled before approval, nothing to compensate",
			zap.String("return_number", cancelled.ReturnNumber))
		return nil
	}

	// Settlement side effects were already applied when this return was
	// approved. Flag it loudly so the credited points and restocked
	// quantities get adjusted by hand.
	h.logger.Warn("approved return cancelled, manual compensation required",
		zap.String("return_id", cancelled.AggregateID().String()),
		zap.String("return_number", cancelled.ReturnNumber),
		zap.String("tenant_id", cancelled.TenantID().String()),
		zap.String("reason", cancelled.Reason))

	return nil
}
