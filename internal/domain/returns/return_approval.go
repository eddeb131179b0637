package returns

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailbill/backend/internal/domain/shared"
)

// ApprovalAction identifies a lifecycle transition recorded in the
// audit trail.
type ApprovalAction string

const (
	ApprovalActionSubmit   ApprovalAction = "SUBMIT"
	ApprovalActionApprove  ApprovalAction = "APPROVE"
	ApprovalActionReject   ApprovalAction = "REJECT"
	ApprovalActionComplete ApprovalAction = "COMPLETE"
	ApprovalActionCancel   ApprovalAction = "CANCEL"
)

// String returns the string representation of ApprovalAction
func (a ApprovalAction) String() string {
	return string(a)
}

// ReturnApproval is one append-only audit record of a lifecycle
// transition. Exactly one is written per successful transition, in the
// same unit of work as the status change. Records are never updated or
// deleted; a return's full history can be reconstructed from them.
type ReturnApproval struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	ReturnID       uuid.UUID
	ReturnNumber   string
	Action         ApprovalAction
	ActorID        uuid.UUID
	ActorName      string
	Comments       string
	PreviousStatus ReturnStatus
	NewStatus      ReturnStatus
	CreatedAt      time.Time
}

// NewReturnApproval creates an audit record for a transition
func NewReturnApproval(
	sr *SalesReturn,
	action ApprovalAction,
	actorID uuid.UUID,
	actorName, comments string,
	previous, next ReturnStatus,
) (*ReturnApproval, error) {
	if actorID == uuid.Nil {
		return nil, shared.NewValidationError("actor ID cannot be empty")
	}

	return &ReturnApproval{
		ID:             uuid.New(),
		TenantID:       sr.TenantID,
		ReturnID:       sr.ID,
		ReturnNumber:   sr.ReturnNumber,
		Action:         action,
		ActorID:        actorID,
		ActorName:      actorName,
		Comments:       comments,
		PreviousStatus: previous,
		NewStatus:      next,
		CreatedAt:      time.Now(),
	}, nil
}
