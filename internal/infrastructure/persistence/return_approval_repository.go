package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/retailbill/backend/internal/infrastructure/persistence/models"
)

// GormReturnApprovalRepository implements ReturnApprovalRepository using GORM.
// The audit trail is append-only: records are inserted once and never
// updated or deleted.
type GormReturnApprovalRepository struct {
	db *gorm.DB
}

// NewGormReturnApprovalRepository creates a new GormReturnApprovalRepository
func NewGormReturnApprovalRepository(db *gorm.DB) *GormReturnApprovalRepository {
	return &GormReturnApprovalRepository{db: db}
}

// Save appends an audit record
func (r *GormReturnApprovalRepository) Save(ctx context.Context, approval *returns.ReturnApproval) error {
	model := models.ReturnApprovalModelFromDomain(approval)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByReturnID lists a return's audit records oldest first
func (r *GormReturnApprovalRepository) FindByReturnID(ctx context.Context, tenantID, returnID uuid.UUID) ([]returns.ReturnApproval, error) {
	var approvalModels []models.ReturnApprovalModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND return_id = ?", tenantID, returnID).
		Order("created_at ASC").
		Find(&approvalModels).Error; err != nil {
		return nil, err
	}

	approvals := make([]returns.ReturnApproval, len(approvalModels))
	for i, model := range approvalModels {
		approvals[i] = *model.ToDomain()
	}
	return approvals, nil
}

// FindByActor lists transitions performed by one user
func (r *GormReturnApprovalRepository) FindByActor(ctx context.Context, tenantID, actorID uuid.UUID, filter shared.Filter) ([]returns.ReturnApproval, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReturnApprovalModel{}).
		Where("tenant_id = ? AND actor_id = ?", tenantID, actorID)

	if offset, ok := filter.Paginate(); ok {
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	query = query.Order(OrderClause(filter.OrderBy, filter.OrderDir, ReturnApprovalSortFields, "created_at"))

	var approvalModels []models.ReturnApprovalModel
	if err := query.Find(&approvalModels).Error; err != nil {
		return nil, err
	}

	approvals := make([]returns.ReturnApproval, len(approvalModels))
	for i, model := range approvalModels {
		approvals[i] = *model.ToDomain()
	}
	return approvals, nil
}

// Ensure GormReturnApprovalRepository implements ReturnApprovalRepository
var _ returns.ReturnApprovalRepository = (*GormReturnApprovalRepository)(nil)
