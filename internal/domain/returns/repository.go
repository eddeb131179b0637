package returns

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailbill/backend/internal/domain/shared"
)

// SalesReturnRepository defines persistence for sales return aggregates
type SalesReturnRepository interface {
	shared.TenantRepository[SalesReturn]

	// FindByReturnNumber finds a return by its human-facing number
	FindByReturnNumber(ctx context.Context, tenantID uuid.UUID, returnNumber string) (*SalesReturn, error)

	// FindBySalesRecord lists the returns raised against one sale
	FindBySalesRecord(ctx context.Context, tenantID, salesRecordID uuid.UUID) ([]SalesReturn, error)

	// FindByStatus lists returns in the given status
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status ReturnStatus, filter shared.Filter) ([]SalesReturn, error)

	// SaveWithLock saves the aggregate with an optimistic version check.
	// Returns shared.ErrConcurrencyConflict when the stored version does
	// not match the expected one.
	SaveWithLock(ctx context.Context, sr *SalesReturn, expectedVersion int) error

	// SaveTransition persists a lifecycle transition atomically: the
	// aggregate (with version check), its audit record, and any
	// settlement side effects executed by sideEffects all commit or
	// roll back together. sideEffects may be nil.
	SaveTransition(ctx context.Context, sr *SalesReturn, expectedVersion int, audit *ReturnApproval, sideEffects func(ctx context.Context) error) error

	// NextReturnSequence reserves the next per-tenant, per-year sequence
	// number used to build return numbers
	NextReturnSequence(ctx context.Context, tenantID uuid.UUID, year int) (int64, error)

	// CountByStatus returns per-status counts for dashboards
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[ReturnStatus]int64, error)

	// SumRefundsBetween sums completed refund amounts in a window,
	// keyed by refund type. Amounts are returned as fixed-point strings.
	SumRefundsBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[RefundType]string, error)
}

// ReturnApprovalRepository defines persistence for the append-only
// approval audit trail. There is deliberately no update or delete.
type ReturnApprovalRepository interface {
	// Save appends an audit record
	Save(ctx context.Context, approval *ReturnApproval) error

	// FindByReturnID lists a return's audit records oldest first
	FindByReturnID(ctx context.Context, tenantID, returnID uuid.UUID) ([]ReturnApproval, error)

	// FindByActor lists transitions performed by one user
	FindByActor(ctx context.Context, tenantID, actorID uuid.UUID, filter shared.Filter) ([]ReturnApproval, error)
}
