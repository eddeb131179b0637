package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/retailbill/backend/internal/infrastructure/persistence/models"
)

// GormSalesReturnRepository implements SalesReturnRepository using GORM
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

// FindByID finds a sales return by its ID
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.SalesReturn, error) {
	var model models.SalesReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("deleted_at IS NULL").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a sales return by ID within a tenant
func (r *GormSalesReturnRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*returns.SalesReturn, error) {
	var model models.SalesReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReturnNumber finds a sales return by return number for a tenant
func (r *GormSalesReturnRepository) FindByReturnNumber(ctx context.Context, tenantID uuid.UUID, returnNumber string) (*returns.SalesReturn, error) {
	var model models.SalesReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND return_number = ? AND deleted_at IS NULL", tenantID, returnNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all sales returns with filtering
func (r *GormSalesReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.SalesReturn, error) {
	var returnModels []models.SalesReturnModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SalesReturnModel{}).Where("deleted_at IS NULL"),
		filter,
	)

	if err := query.Find(&returnModels).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(returnModels), nil
}

// FindAllForTenant finds all sales returns for a tenant with filtering
func (r *GormSalesReturnRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]returns.SalesReturn, error) {
	var returnModels []models.SalesReturnModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SalesReturnModel{}).
			Where("tenant_id = ? AND deleted_at IS NULL", tenantID),
		filter,
	)

	if err := query.Find(&returnModels).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(returnModels), nil
}

// FindBySalesRecord finds the returns raised against one sale
func (r *GormSalesReturnRepository) FindBySalesRecord(ctx context.Context, tenantID, salesRecordID uuid.UUID) ([]returns.SalesReturn, error) {
	var returnModels []models.SalesReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND sales_record_id = ? AND deleted_at IS NULL", tenantID, salesRecordID).
		Order("created_at DESC").
		Find(&returnModels).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(returnModels), nil
}

// FindByStatus finds sales returns by status for a tenant
func (r *GormSalesReturnRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status returns.ReturnStatus, filter shared.Filter) ([]returns.SalesReturn, error) {
	var returnModels []models.SalesReturnModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SalesReturnModel{}).
			Where("tenant_id = ? AND status = ? AND deleted_at IS NULL", tenantID, status),
		filter,
	)

	if err := query.Find(&returnModels).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(returnModels), nil
}

// Save creates or updates a sales return
func (r *GormSalesReturnRepository) Save(ctx context.Context, sr *returns.SalesReturn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveSalesReturn(tx, sr)
	})
}

// SaveWithLock saves the aggregate with an optimistic version check.
// Returns shared.ErrConcurrencyConflict when the stored version does not
// match expectedVersion.
func (r *GormSalesReturnRepository) SaveWithLock(ctx context.Context, sr *returns.SalesReturn, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveSalesReturnWithLock(tx, sr, expectedVersion)
	})
}

// SaveTransition persists a lifecycle transition atomically: the aggregate
// (with version check), its audit record, and the settlement side effects
// all commit or roll back together.
func (r *GormSalesReturnRepository) SaveTransition(ctx context.Context, sr *returns.SalesReturn, expectedVersion int, audit *returns.ReturnApproval, sideEffects func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row and check the version before any side effect fires.
		// A concurrent transition loses here without having touched external
		// systems, so settlement effects cannot be applied twice.
		if err := lockSalesReturnVersion(tx, sr, expectedVersion); err != nil {
			return err
		}

		// Side effects run inside the serialized window so they can still
		// mutate the aggregate (settlement fields, restock statuses) before
		// it is written.
		if sideEffects != nil {
			if err := sideEffects(ctx); err != nil {
				return err
			}
		}

		if err := writeSalesReturnVersioned(tx, sr, expectedVersion); err != nil {
			return err
		}

		if audit != nil {
			auditModel := models.ReturnApprovalModelFromDomain(audit)
			if err := tx.Create(auditModel).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete soft deletes a sales return
func (r *GormSalesReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.SalesReturnModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"deleted_at": time.Now(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts sales returns matching the filter
func (r *GormSalesReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.SalesReturnModel{}).Where("deleted_at IS NULL"),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountForTenant counts sales returns for a tenant with optional filters
func (r *GormSalesReturnRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.SalesReturnModel{}).
			Where("tenant_id = ? AND deleted_at IS NULL", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextReturnSequence reserves the next per-tenant, per-year sequence number.
// Uses an upsert with a RETURNING clause so concurrent callers never
// observe the same value.
func (r *GormSalesReturnRepository) NextReturnSequence(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO return_sequences (tenant_id, year, last_value, updated_at)
		VALUES (?, ?, 1, NOW())
		ON CONFLICT (tenant_id, year)
		DO UPDATE SET last_value = return_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`,
		tenantID, year,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// CountByStatus returns per-status counts for a tenant
func (r *GormSalesReturnRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[returns.ReturnStatus]int64, error) {
	type statusCount struct {
		Status returns.ReturnStatus
		Count  int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.SalesReturnModel{}).
		Select("status, COUNT(*) as count").
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[returns.ReturnStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumRefundsBetween sums completed refund amounts in a window, keyed by
// refund type. Amounts keep their fixed-point representation.
func (r *GormSalesReturnRepository) SumRefundsBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[returns.RefundType]string, error) {
	type refundSum struct {
		RefundType returns.RefundType
		Total      decimal.Decimal
	}
	var rows []refundSum
	if err := r.db.WithContext(ctx).
		Model(&models.SalesReturnModel{}).
		Select("refund_type, COALESCE(SUM(refund_amount), 0) as total").
		Where("tenant_id = ? AND refund_status = ? AND refund_date >= ? AND refund_date <= ? AND deleted_at IS NULL",
			tenantID, returns.RefundStatusCompleted, from, to).
		Group("refund_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[returns.RefundType]string, len(rows))
	for _, row := range rows {
		sums[row.RefundType] = row.Total.StringFixed(2)
	}
	return sums, nil
}

// saveSalesReturn writes the aggregate and reconciles its items inside
// the caller's transaction.
func saveSalesReturn(tx *gorm.DB, sr *returns.SalesReturn) error {
	model := models.SalesReturnModelFromDomain(sr)

	if err := tx.Omit("Items").Save(model).Error; err != nil {
		return err
	}

	return saveItems(tx, sr)
}

// saveSalesReturnWithLock writes the aggregate with a version check and
// reconciles its items inside the caller's transaction.
func saveSalesReturnWithLock(tx *gorm.DB, sr *returns.SalesReturn, expectedVersion int) error {
	if err := lockSalesReturnVersion(tx, sr, expectedVersion); err != nil {
		return err
	}
	return writeSalesReturnVersioned(tx, sr, expectedVersion)
}

// lockSalesReturnVersion takes a row lock on the aggregate and verifies the
// stored version matches expectedVersion. Of two concurrent transitions the
// second blocks here until the first commits, then fails the version check.
func lockSalesReturnVersion(tx *gorm.DB, sr *returns.SalesReturn, expectedVersion int) error {
	var currentVersion int
	if err := tx.Model(&models.SalesReturnModel{}).
		Where("id = ?", sr.ID).
		Select("version").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scan(&currentVersion).Error; err != nil {
		return err
	}
	if currentVersion == 0 {
		return shared.ErrNotFound
	}
	if currentVersion != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// writeSalesReturnVersioned bumps the version, writes the aggregate with a
// guarded UPDATE and reconciles its items. The caller must hold the row lock.
func writeSalesReturnVersioned(tx *gorm.DB, sr *returns.SalesReturn, expectedVersion int) error {
	sr.Version = expectedVersion + 1
	sr.UpdatedAt = time.Now()

	model := models.SalesReturnModelFromDomain(sr)
	result := tx.Model(&models.SalesReturnModel{}).
		Where("id = ? AND version = ?", sr.ID, expectedVersion).
		Omit("Items").
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	return saveItems(tx, sr)
}

// saveItems deletes removed items and upserts the current ones
func saveItems(tx *gorm.DB, sr *returns.SalesReturn) error {
	currentItemIDs := make([]uuid.UUID, len(sr.Items))
	for i, item := range sr.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("return_id = ? AND id NOT IN ?", sr.ID, currentItemIDs).
			Delete(&models.SalesReturnItemModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("return_id = ?", sr.ID).
			Delete(&models.SalesReturnItemModel{}).Error; err != nil {
			return err
		}
	}

	for i := range sr.Items {
		sr.Items[i].ReturnID = sr.ID
		itemModel := models.SalesReturnItemModelFromDomain(&sr.Items[i])
		if err := tx.Save(itemModel).Error; err != nil {
			return err
		}
	}

	return nil
}

func toDomainSlice(returnModels []models.SalesReturnModel) []returns.SalesReturn {
	out := make([]returns.SalesReturn, len(returnModels))
	for i, model := range returnModels {
		out[i] = *model.ToDomain()
	}
	return out
}

// applyFilter applies filter options to the query
func (r *GormSalesReturnRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if offset, ok := filter.Paginate(); ok {
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	query = query.Order(OrderClause(filter.OrderBy, filter.OrderDir, SalesReturnSortFields, "created_at"))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSalesReturnRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("return_number ILIKE ? OR customer_name ILIKE ? OR invoice_number ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "tenant_id":
			query = query.Where("tenant_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "sales_record_id":
			query = query.Where("sales_record_id = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "refund_type":
			query = query.Where("refund_type = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("return_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("return_date <= ?", t)
			}
		case "min_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total_amount >= ?", d)
			}
		case "max_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total_amount <= ?", d)
			}
		}
	}

	return query
}

// Ensure GormSalesReturnRepository implements SalesReturnRepository
var _ returns.SalesReturnRepository = (*GormSalesReturnRepository)(nil)
