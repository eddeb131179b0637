package integration

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/infrastructure/auth"
)

// Permission codes checked for return lifecycle actions.
const (
	PermissionReturnSubmit   = "returns:submit"
	PermissionReturnApprove  = "returns:approve"
	PermissionReturnReject   = "returns:reject"
	PermissionReturnComplete = "returns:complete"
	PermissionReturnCancel   = "returns:cancel"
)

// actionPermissions maps lifecycle actions to the permission code an
// actor must hold.
var actionPermissions = map[returns.ApprovalAction]string{
	returns.ApprovalActionSubmit:   PermissionReturnSubmit,
	returns.ApprovalActionApprove:  PermissionReturnApprove,
	returns.ApprovalActionReject:   PermissionReturnReject,
	returns.ApprovalActionComplete: PermissionReturnComplete,
	returns.ApprovalActionCancel:   PermissionReturnCancel,
}

// AllowAllPermissionChecker permits every lifecycle action. Used as the
// default wiring when permission enforcement is disabled.
type AllowAllPermissionChecker struct{}

// NewAllowAllPermissionChecker creates a checker that permits everything
func NewAllowAllPermissionChecker() *AllowAllPermissionChecker {
	return &AllowAllPermissionChecker{}
}

// CanTransition always returns true.
func (c *AllowAllPermissionChecker) CanTransition(_ context.Context, _, _ uuid.UUID, _ returns.ApprovalAction) (bool, error) {
	return true, nil
}

// ClaimsPermissionChecker authorizes lifecycle actions against the
// permission list carried in the actor's JWT claims. Claims must be
// placed on the context by the authentication middleware; a request
// with no claims is denied.
type ClaimsPermissionChecker struct{}

// NewClaimsPermissionChecker creates a claims-backed permission checker
func NewClaimsPermissionChecker() *ClaimsPermissionChecker {
	return &ClaimsPermissionChecker{}
}

// CanTransition reports whether the actor's claims grant the permission
// for the requested action. The actor and tenant in the claims must
// match the ones being acted for.
func (c *ClaimsPermissionChecker) CanTransition(ctx context.Context, tenantID, actorID uuid.UUID, action returns.ApprovalAction) (bool, error) {
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil {
		return false, nil
	}

	claimTenant, err := claims.GetTenantUUID()
	if err != nil || claimTenant != tenantID {
		return false, nil
	}
	claimUser, err := claims.GetUserUUID()
	if err != nil || claimUser != actorID {
		return false, nil
	}

	permission, ok := actionPermissions[action]
	if !ok {
		return false, nil
	}
	return claims.HasPermission(permission), nil
}

var (
	_ returns.PermissionChecker = (*AllowAllPermissionChecker)(nil)
	_ returns.PermissionChecker = (*ClaimsPermissionChecker)(nil)
)
