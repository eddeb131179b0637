package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
)

// Actor identifies the authenticated user performing an operation,
// resolved from the JWT by the HTTP layer.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// SalesReturnService handles sales return business operations
type SalesReturnService struct {
	returnRepo     returns.SalesReturnRepository
	approvalRepo   returns.ReturnApprovalRepository
	permissions    returns.PermissionChecker
	settlement     *RefundSettlementEngine
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSalesReturnService creates a new SalesReturnService
func NewSalesReturnService(
	returnRepo returns.SalesReturnRepository,
	approvalRepo returns.ReturnApprovalRepository,
	permissions returns.PermissionChecker,
	settlement *RefundSettlementEngine,
	logger *zap.Logger,
) *SalesReturnService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesReturnService{
		returnRepo:   returnRepo,
		approvalRepo: approvalRepo,
		permissions:  permissions,
		settlement:   settlement,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SalesReturnService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new sales return draft against an existing sale
func (s *SalesReturnService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSalesReturnRequest) (*SalesReturnResponse, error) {
	seq, err := s.returnRepo.NextReturnSequence(ctx, tenantID, time.Now().Year())
	if err != nil {
		return nil, err
	}
	returnNumber := returns.FormatReturnNumber(time.Now().Year(), seq)

	sr, err := returns.NewSalesReturn(tenantID, returnNumber, returns.SaleReference{
		SalesRecordID: req.SalesRecordID,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   req.InvoiceDate,
	}, req.CustomerID, req.CustomerName)
	if err != nil {
		return nil, err
	}

	if err := sr.SetPricing(req.GstIncluded, req.Discount, parseDiscountType(req.DiscountType)); err != nil {
		return nil, err
	}
	if req.RefundType != "" {
		if err := sr.SetRefundType(parseRefundType(req.RefundType)); err != nil {
			return nil, err
		}
	}

	for _, item := range req.Items {
		if _, err := sr.AddItem(itemParamsFromInput(item)); err != nil {
			return nil, err
		}
	}

	if req.WarehouseID != nil {
		if err := sr.SetWarehouse(*req.WarehouseID); err != nil {
			return nil, err
		}
	}
	if req.BranchID != nil {
		sr.SetBranch(*req.BranchID)
	}
	if req.Reason != "" {
		sr.SetReason(req.Reason)
	}
	if req.Remark != "" {
		sr.SetRemark(req.Remark)
	}
	if req.CreatedBy != nil {
		sr.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.returnRepo.Save(ctx, sr); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sr)

	s.logger.Info("sales return created",
		zap.String("return_number", sr.ReturnNumber),
		zap.String("tenant_id", tenantID.String()))

	response := ToSalesReturnResponse(sr)
	return &response, nil
}

// GetByID retrieves a sales return by ID
func (s *SalesReturnService) GetByID(ctx context.Context, tenantID, returnID uuid.UUID) (*SalesReturnResponse, error) {
	sr, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}
	response := ToSalesReturnResponse(sr)
	return &response, nil
}

// GetByReturnNumber retrieves a sales return by return number
func (s *SalesReturnService) GetByReturnNumber(ctx context.Context, tenantID uuid.UUID, returnNumber string) (*SalesReturnResponse, error) {
	sr, err := s.returnRepo.FindByReturnNumber(ctx, tenantID, returnNumber)
	if err != nil {
		return nil, err
	}
	response := ToSalesReturnResponse(sr)
	return &response, nil
}

// List retrieves a list of sales returns with filtering and pagination
func (s *SalesReturnService) List(ctx context.Context, tenantID uuid.UUID, filter SalesReturnListFilter) ([]SalesReturnListItemResponse, int64, error) {
	domainFilter := buildDomainFilter(filter)

	items, err := s.returnRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.returnRepo.Count(ctx, withTenant(domainFilter, tenantID))
	if err != nil {
		return nil, 0, err
	}

	return ToSalesReturnListItemResponses(items), total, nil
}

// ListBySalesRecord retrieves returns raised against one sale
func (s *SalesReturnService) ListBySalesRecord(ctx context.Context, tenantID, salesRecordID uuid.UUID) ([]SalesReturnListItemResponse, error) {
	items, err := s.returnRepo.FindBySalesRecord(ctx, tenantID, salesRecordID)
	if err != nil {
		return nil, err
	}
	return ToSalesReturnListItemResponses(items), nil
}

// ListPendingApproval retrieves returns awaiting a decision
func (s *SalesReturnService) ListPendingApproval(ctx context.Context, tenantID uuid.UUID, filter SalesReturnListFilter) ([]SalesReturnListItemResponse, int64, error) {
	status := returns.ReturnStatusPendingApproval
	filter.Status = &status
	return s.List(ctx, tenantID, filter)
}

// ListApprovals retrieves the audit trail of a return, oldest first
func (s *SalesReturnService) ListApprovals(ctx context.Context, tenantID, returnID uuid.UUID) ([]ReturnApprovalResponse, error) {
	if _, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID); err != nil {
		return nil, err
	}
	records, err := s.approvalRepo.FindByReturnID(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}
	return ToReturnApprovalResponses(records), nil
}

// GetStats returns dashboard statistics for a date window
func (s *SalesReturnService) GetStats(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*ReturnStatsResponse, error) {
	counts, err := s.returnRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	refunds, err := s.returnRepo.SumRefundsBetween(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &ReturnStatsResponse{
		CountsByStatus: make(map[string]int64, len(counts)),
		RefundsByType:  make(map[string]string, len(refunds)),
		From:           from,
		To:             to,
	}
	for status, n := range counts {
		stats.CountsByStatus[status.String()] = n
	}
	for refundType, amount := range refunds {
		stats.RefundsByType[refundType.String()] = amount
	}
	return stats, nil
}

// Update updates a sales return (only allowed in DRAFT status)
func (s *SalesReturnService) Update(ctx context.Context, tenantID, returnID uuid.UUID, req UpdateSalesReturnRequest) (*SalesReturnResponse, error) {
	sr, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}

	if !sr.CanModify() {
		return nil, shared.NewValidationError("return can only be modified in draft status")
	}

	expectedVersion := sr.Version

	if req.WarehouseID != nil {
		if *req.WarehouseID == uuid.Nil {
			sr.WarehouseID = nil
		} else if err := sr.SetWarehouse(*req.WarehouseID); err != nil {
			return nil, err
		}
	}

	if req.GstIncluded != nil || req.Discount != nil || req.DiscountType != nil {
		gstIncluded := sr.GstIncluded
		if req.GstIncluded != nil {
			gstIncluded = *req.GstIncluded
		}
		discount := sr.Discount
		if req.Discount != nil {
			discount = *req.Discount
		}
		discountType := sr.DiscountType
		if req.DiscountType != nil {
			discountType = parseDiscountType(*req.DiscountType)
		}
		if err := sr.SetPricing(gstIncluded, discount, discountType); err != nil {
			return nil, err
		}
	}

	if req.RefundType != nil {
		if err := sr.SetRefundType(parseRefundType(*req.RefundType)); err != nil {
			return nil, err
		}
	}
	if req.Reason != nil {
		sr.SetReason(*req.Reason)
	}
	if req.Remark != nil {
		sr.SetRemark(*req.Remark)
	}

	if err := s.returnRepo.SaveWithLock(ctx, sr, expectedVersion); err != nil {
		return nil, err
	}

	response := ToSalesReturnResponse(sr)
	return &response, nil
}

// Delete soft-deletes a sales return (only allowed in DRAFT status)
func (s *SalesReturnService) Delete(ctx context.Context, tenantID, returnID uuid.UUID) error {
	sr, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID)
	if err != nil {
		return err
	}
	if err := sr.SoftDelete(); err != nil {
		return err
	}
	return s.returnRepo.Delete(ctx, returnID)
}

// AddItem adds an item to a return (only allowed in DRAFT status)
func (s *SalesReturnService) AddItem(ctx context.Context, tenantID, returnID uuid.UUID, req AddReturnItemRequest) (*SalesReturnResponse, error) {
	sr, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}

	expectedVersion := sr.Version
	if _, err := sr.AddItem(itemParamsFromInput(req.CreateSalesReturnItemInput)); err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLock(ctx, sr, expectedVersion); err != nil {
		return nil, err
	}

	response := ToSalesReturnResponse(sr)
	return &response, nil
}

// UpdateItem updates an item in a return (only allowed in DRAFT status)
func (s *SalesReturnService) UpdateItem(ctx context.Context, tenantID, returnID, itemID uuid.UUID, req UpdateReturnItemRequest) (*SalesReturnResponse, error) {
	sr, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}

	if !sr.CanModify() {
		return nil, shared.NewValidationError("return can only be modified in draft status")
	}

	item := sr.GetItem(itemID)
	if item == nil {
		return nil, shared.NewDomainError("ITEM_NOT_FOUND", "return item not found")
	}

	expectedVersion := sr.Version

	if req.Quantity != nil || req.LooseQuantity != nil {
		quantity := item.Quantity
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		loose := item.LooseQuantity
		if req.LooseQuantity != nil {
			loose = *req.LooseQuantity
		}
		if err := sr.UpdateItemQuantity(itemID, quantity, loose); err != nil {
			return nil, err
		}
		item = sr.GetItem(itemID)
	}

	if req.Condition != nil {
		if err := item.SetCondition(returns.ItemCondition(*req.Condition)); err != nil {
			return nil, err
		}
	}
	if req.Reason != nil {
		item.SetReason(*req.Reason)
	}

	if err := s.returnRepo.SaveWithLock(ctx, sr, expectedVersion); err != nil {
		return nil, err
	}

	response := ToSalesReturnResponse(sr)
	return &response, nil
}

// RemoveItem removes an item from a return (only allowed in DRAFT status)
func (s *SalesReturnService) RemoveItem(ctx context.Context, tenantID, returnID, itemID uuid.UUID) (*SalesReturnResponse, error) {
	sr, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}

	expectedVersion := sr.Version
	if err := sr.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLock(ctx, sr, expectedVersion); err != nil {
		return nil, err
	}

	response := ToSalesReturnResponse(sr)
	return &response, nil
}

// Submit submits a return for approval
func (s *SalesReturnService) Submit(ctx context.Context, tenantID, returnID uuid.UUID, actor Actor, req SubmitReturnRequest) (*SalesReturnResponse, error) {
	return s.transition(ctx, tenantID, returnID, actor, returns.ApprovalActionSubmit,
		func(sr *returns.SalesReturn) (*returns.ReturnApproval, error) {
			return sr.Submit(actor.ID, actor.Name, req.Comments)
		}, nil)
}

// Approve approves a return and settles the refund in the same
// transaction. A settlement failure rolls the approval back and the
// request can be retried.
func (s *SalesReturnService) Approve(ctx context.Context, tenantID, returnID uuid.UUID, actor Actor, req ApproveReturnRequest) (*SalesReturnResponse, error) {
	autoRestock := true
	if req.AutoRestock != nil {
		autoRestock = *req.AutoRestock
	}

	var sideEffects func(ctx context.Context, sr *returns.SalesReturn) error
	if s.settlement != nil {
		sideEffects = func(ctx context.Context, sr *returns.SalesReturn) error {
			return s.settlement.SettleWithOptions(ctx, sr, SettleOptions{AutoRestock: autoRestock})
		}
	}
	// A retried approval of an already approved return replays the
	// settled state instead of raising a state conflict, so callers can
	// safely resubmit after a timeout.
	alreadyDone := func(sr *returns.SalesReturn) bool {
		return sr.Status == returns.ReturnStatusApproved
	}
	return s.transitionIdempotent(ctx, tenantID, returnID, actor, returns.ApprovalActionApprove,
		alreadyDone,
		func(sr *returns.SalesReturn) (*returns.ReturnApproval, error) {
			return sr.Approve(actor.ID, actor.Name, req.Note)
		}, sideEffects)
}

// Reject rejects a return
func (s *SalesReturnService) Reject(ctx context.Context, tenantID, returnID uuid.UUID, actor Actor, req RejectReturnRequest) (*SalesReturnResponse, error) {
	return s.transition(ctx, tenantID, returnID, actor, returns.ApprovalActionReject,
		func(sr *returns.SalesReturn) (*returns.ReturnApproval, error) {
			return sr.Reject(actor.ID, actor.Name, req.Reason)
		}, nil)
}

// Complete finalises an approved and settled return
func (s *SalesReturnService) Complete(ctx context.Context, tenantID, returnID uuid.UUID, actor Actor, req CompleteReturnRequest) (*SalesReturnResponse, error) {
	return s.transition(ctx, tenantID, returnID, actor, returns.ApprovalActionComplete,
		func(sr *returns.SalesReturn) (*returns.ReturnApproval, error) {
			return sr.Complete(actor.ID, actor.Name, req.Notes)
		}, nil)
}

// Cancel cancels a return from any non-terminal status
func (s *SalesReturnService) Cancel(ctx context.Context, tenantID, returnID uuid.UUID, actor Actor, req CancelReturnRequest) (*SalesReturnResponse, error) {
	return s.transition(ctx, tenantID, returnID, actor, returns.ApprovalActionCancel,
		func(sr *returns.SalesReturn) (*returns.ReturnApproval, error) {
			return sr.Cancel(actor.ID, actor.Name, req.Reason)
		}, nil)
}

// transition runs one lifecycle transition: permission check, domain
// mutation, then an atomic save of aggregate, audit record and side
// effects. Events are published only after the transaction commits.
func (s *SalesReturnService) transition(
	ctx context.Context,
	tenantID, returnID uuid.UUID,
	actor Actor,
	action returns.ApprovalAction,
	mutate func(sr *returns.SalesReturn) (*returns.ReturnApproval, error),
	sideEffects func(ctx context.Context, sr *returns.SalesReturn) error,
) (*SalesReturnResponse, error) {
	return s.transitionIdempotent(ctx, tenantID, returnID, actor, action, nil, mutate, sideEffects)
}

// transitionIdempotent is transition with an optional replay predicate.
// When alreadyDone reports the aggregate is already in the target state,
// the current state is returned without mutating or saving anything.
func (s *SalesReturnService) transitionIdempotent(
	ctx context.Context,
	tenantID, returnID uuid.UUID,
	actor Actor,
	action returns.ApprovalAction,
	alreadyDone func(sr *returns.SalesReturn) bool,
	mutate func(sr *returns.SalesReturn) (*returns.ReturnApproval, error),
	sideEffects func(ctx context.Context, sr *returns.SalesReturn) error,
) (*SalesReturnResponse, error) {
	if s.permissions != nil {
		allowed, err := s.permissions.CanTransition(ctx, tenantID, actor.ID, action)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, shared.ErrForbidden
		}
	}

	sr, err := s.returnRepo.FindByIDForTenant(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}

	if alreadyDone != nil && alreadyDone(sr) {
		response := ToSalesReturnResponse(sr)
		return &response, nil
	}

	expectedVersion := sr.Version

	audit, err := mutate(sr)
	if err != nil {
		return nil, err
	}

	var effects func(ctx context.Context) error
	if sideEffects != nil {
		effects = func(ctx context.Context) error {
			return sideEffects(ctx, sr)
		}
	}

	if err := s.returnRepo.SaveTransition(ctx, sr, expectedVersion, audit, effects); err != nil {
		s.logger.Warn("return transition failed",
			zap.String("return_number", sr.ReturnNumber),
			zap.String("action", action.String()),
			zap.Error(err))
		return nil, err
	}

	s.publishEvents(ctx, sr)

	s.logger.Info("return transition applied",
		zap.String("return_number", sr.ReturnNumber),
		zap.String("action", action.String()),
		zap.String("actor_id", actor.ID.String()),
		zap.String("status", sr.Status.String()))

	response := ToSalesReturnResponse(sr)
	return &response, nil
}

func (s *SalesReturnService) publishEvents(ctx context.Context, sr *returns.SalesReturn) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range sr.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	sr.ClearDomainEvents()
}

func itemParamsFromInput(in CreateSalesReturnItemInput) returns.NewItemParams {
	return returns.NewItemParams{
		ProductID:     in.ProductID,
		VariantID:     in.VariantID,
		ProductName:   in.ProductName,
		ProductCode:   in.ProductCode,
		Quantity:      in.Quantity,
		LooseQuantity: in.LooseQuantity,
		PackSize:      in.PackSize,
		MaxQuantity:   in.MaxQuantity,
		UnitPrice:     in.UnitPrice,
		TaxPercentage: in.TaxPercentage,
		Condition:     returns.ItemCondition(in.Condition),
		Reason:        in.Reason,
	}
}

func buildDomainFilter(filter SalesReturnListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}

	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.SalesRecordID != nil {
		domainFilter.Filters["sales_record_id"] = *filter.SalesRecordID
	}
	if filter.WarehouseID != nil {
		domainFilter.Filters["warehouse_id"] = *filter.WarehouseID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if len(filter.Statuses) > 0 {
		domainFilter.Filters["statuses"] = filter.Statuses
	}
	if filter.RefundType != nil {
		domainFilter.Filters["refund_type"] = string(*filter.RefundType)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	if filter.MinAmount != nil {
		domainFilter.Filters["min_amount"] = *filter.MinAmount
	}
	if filter.MaxAmount != nil {
		domainFilter.Filters["max_amount"] = *filter.MaxAmount
	}

	return domainFilter
}

func withTenant(filter shared.Filter, tenantID uuid.UUID) shared.Filter {
	out := filter
	out.Filters = make(map[string]any, len(filter.Filters)+1)
	for k, v := range filter.Filters {
		out.Filters[k] = v
	}
	out.Filters["tenant_id"] = tenantID
	return out
}
