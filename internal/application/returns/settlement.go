package returns

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
)

// RefundSettlementEngine executes the side effects of an approved
// return: crediting loyalty points for POINTS refunds, marking monetary
// refunds settled, and putting restockable goods back into inventory.
// It runs inside the approval transaction, so any failure here rolls
// the whole approval back and the caller may retry.
//
// External calls are guarded by an idempotency store so a retry after a
// partial failure does not credit points or restock twice.
type RefundSettlementEngine struct {
	points      returns.PointsLedger
	restocker   returns.StockRestocker
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewRefundSettlementEngine creates a new settlement engine
func NewRefundSettlementEngine(
	points returns.PointsLedger,
	restocker returns.StockRestocker,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	logger *zap.Logger,
) *RefundSettlementEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundSettlementEngine{
		points:      points,
		restocker:   restocker,
		idempotency: idempotency,
		idemCfg:     idemCfg,
		logger:      logger,
	}
}

// SettleOptions controls per-approval settlement behaviour.
type SettleOptions struct {
	// AutoRestock requests restocking of good-condition items. When
	// false only the scrap/RMA routing is recorded.
	AutoRestock bool
}

// Settle applies the refund and restock side effects to an approved
// return, mutating the aggregate's settlement fields. The caller is
// responsible for persisting the aggregate in the same unit of work.
func (e *RefundSettlementEngine) Settle(ctx context.Context, sr *returns.SalesReturn) error {
	return e.SettleWithOptions(ctx, sr, SettleOptions{AutoRestock: true})
}

// SettleWithOptions is Settle with explicit per-call options.
func (e *RefundSettlementEngine) SettleWithOptions(ctx context.Context, sr *returns.SalesReturn, opts SettleOptions) error {
	if err := e.settleRefund(ctx, sr); err != nil {
		return err
	}
	if !opts.AutoRestock {
		sr.RouteNonRestockableItems()
		return nil
	}
	return e.settleStock(ctx, sr)
}

func (e *RefundSettlementEngine) settleRefund(ctx context.Context, sr *returns.SalesReturn) error {
	if sr.RefundType == returns.RefundTypePoints {
		points, err := sr.SettlePointsRefund()
		if err != nil {
			return err
		}
		if points == 0 {
			return nil
		}
		if e.points == nil {
			return shared.NewSettlementFailureError(
				"no loyalty ledger configured for points refund " + sr.ReturnNumber)
		}

		key := settlementKey(sr, "points")
		done, err := e.alreadyDone(ctx, key)
		if err != nil {
			return shared.NewSettlementFailureError("idempotency check failed: " + err.Error())
		}
		if done {
			e.logger.Info("points credit already applied, skipping",
				zap.String("return_number", sr.ReturnNumber))
			return nil
		}

		if err := e.points.CreditPoints(ctx, sr.TenantID, sr.CustomerID, points, sr.ReturnNumber); err != nil {
			e.logger.Error("points credit failed",
				zap.String("return_number", sr.ReturnNumber),
				zap.Int64("points", points),
				zap.Error(err))
			return shared.NewSettlementFailureError(
				fmt.Sprintf("failed to credit %d points for %s: %v", points, sr.ReturnNumber, err))
		}
		e.markDone(ctx, key)

		e.logger.Info("loyalty points credited",
			zap.String("return_number", sr.ReturnNumber),
			zap.String("customer_id", sr.CustomerID.String()),
			zap.Int64("points", points))
		return nil
	}

	// Monetary refunds are paid out at the counter or by the payment
	// provider; here we only record the settlement against the return.
	return sr.SettleMonetaryRefund(sr.ReturnNumber)
}

func (e *RefundSettlementEngine) settleStock(ctx context.Context, sr *returns.SalesReturn) error {
	if e.restocker == nil || sr.WarehouseID == nil {
		sr.RouteNonRestockableItems()
		return nil
	}

	restockable := sr.RestockableItems()
	if len(restockable) == 0 {
		sr.RouteNonRestockableItems()
		return nil
	}

	key := settlementKey(sr, "restock")
	done, err := e.alreadyDone(ctx, key)
	if err != nil {
		return shared.NewSettlementFailureError("idempotency check failed: " + err.Error())
	}
	if !done {
		lines := make([]returns.RestockLine, len(restockable))
		for i, item := range restockable {
			lines[i] = returns.RestockLine{
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				Loose:       item.LooseQuantity,
				PackSize:    item.PackSize,
			}
		}

		if err := e.restocker.Restock(ctx, sr.TenantID, *sr.WarehouseID, sr.ReturnNumber, lines); err != nil {
			e.logger.Error("restock failed",
				zap.String("return_number", sr.ReturnNumber),
				zap.String("warehouse_id", sr.WarehouseID.String()),
				zap.Error(err))
			return shared.NewSettlementFailureError(
				fmt.Sprintf("failed to restock %s: %v", sr.ReturnNumber, err))
		}
		e.markDone(ctx, key)
	}

	sr.MarkRestocked(*sr.WarehouseID)

	e.logger.Info("returned stock booked for restock",
		zap.String("return_number", sr.ReturnNumber),
		zap.Int("lines", len(restockable)))
	return nil
}

// alreadyDone reports whether a side effect was applied by an earlier
// attempt. The key is only marked after the external call succeeds, so
// a rolled-back attempt leaves it unmarked and retryable.
func (e *RefundSettlementEngine) alreadyDone(ctx context.Context, key string) (bool, error) {
	if e.idempotency == nil || !e.idemCfg.Enabled {
		return false, nil
	}
	return e.idempotency.IsProcessed(ctx, key)
}

func (e *RefundSettlementEngine) markDone(ctx context.Context, key string) {
	if e.idempotency == nil || !e.idemCfg.Enabled {
		return
	}
	if _, err := e.idempotency.MarkProcessed(ctx, key, e.idemCfg.TTL); err != nil {
		e.logger.Warn("failed to record idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func settlementKey(sr *returns.SalesReturn, effect string) string {
	return "settlement:" + sr.ID.String() + ":" + effect
}
