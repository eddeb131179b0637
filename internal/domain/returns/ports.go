package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RestockLine is one inventory adjustment produced by an approved return
type RestockLine struct {
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	Loose       decimal.Decimal
	PackSize    decimal.Decimal
}

// StockRestocker puts returned goods back into inventory. Implemented
// by the inventory integration; called inside the approval unit of work
// so a failed restock rolls the approval back.
type StockRestocker interface {
	Restock(ctx context.Context, tenantID, warehouseID uuid.UUID, returnNumber string, lines []RestockLine) error
}

// PointsLedger credits loyalty points to a customer account. Called
// inside the approval unit of work for POINTS refunds.
type PointsLedger interface {
	CreditPoints(ctx context.Context, tenantID, customerID uuid.UUID, points int64, reference string) error
}

// PermissionChecker answers whether an actor may perform a lifecycle
// action on returns for a tenant.
type PermissionChecker interface {
	CanTransition(ctx context.Context, tenantID, actorID uuid.UUID, action ApprovalAction) (bool, error)
}
