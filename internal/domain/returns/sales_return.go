package returns

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailbill/backend/internal/domain/billing"
	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/retailbill/backend/internal/domain/shared/valueobject"
)

// ReturnStatus represents the lifecycle status of a sales return
type ReturnStatus string

const (
	ReturnStatusDraft           ReturnStatus = "DRAFT"
	ReturnStatusPendingApproval ReturnStatus = "PENDING_APPROVAL"
	ReturnStatusApproved        ReturnStatus = "APPROVED"
	ReturnStatusRejected        ReturnStatus = "REJECTED"
	ReturnStatusCompleted       ReturnStatus = "COMPLETED"
	ReturnStatusCancelled       ReturnStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusDraft, ReturnStatusPendingApproval, ReturnStatusApproved,
		ReturnStatusRejected, ReturnStatusCompleted, ReturnStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusRejected || s == ReturnStatusCompleted || s == ReturnStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusDraft:
		return target == ReturnStatusPendingApproval || target == ReturnStatusCancelled
	case ReturnStatusPendingApproval:
		return target == ReturnStatusApproved || target == ReturnStatusRejected || target == ReturnStatusCancelled
	case ReturnStatusApproved:
		return target == ReturnStatusCompleted || target == ReturnStatusRejected || target == ReturnStatusCancelled
	case ReturnStatusRejected, ReturnStatusCompleted, ReturnStatusCancelled:
		return false
	}
	return false
}

// SalesReturnItem represents a line item in a sales return
type SalesReturnItem struct {
	ID                 uuid.UUID
	ReturnID           uuid.UUID
	ProductID          uuid.UUID
	VariantID          *uuid.UUID
	ProductName        string
	ProductCode        string
	Quantity           decimal.Decimal // packs being returned
	LooseQuantity      decimal.Decimal // sub-pack units being returned
	PackSize           decimal.Decimal // units per pack, 1 when sold loose
	MaxQuantity        decimal.Decimal // quantity originally sold
	UnitPrice          decimal.Decimal
	TaxPercentage      decimal.Decimal
	LineTotal          decimal.Decimal // derived, never authoritative
	Condition          ItemCondition
	Reason             string
	RestockStatus      RestockStatus
	RestockWarehouseID *uuid.UUID
	RestockedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewItemParams carries the inputs for a new return line item, sourced
// from the original invoice line.
type NewItemParams struct {
	ProductID     uuid.UUID
	VariantID     *uuid.UUID
	ProductName   string
	ProductCode   string
	Quantity      decimal.Decimal
	LooseQuantity decimal.Decimal
	PackSize      decimal.Decimal
	MaxQuantity   decimal.Decimal // quantity sold on the invoice
	UnitPrice     decimal.Decimal
	TaxPercentage decimal.Decimal
	Condition     ItemCondition
	Reason        string
}

// NewSalesReturnItem creates a new sales return item
func NewSalesReturnItem(returnID uuid.UUID, p NewItemParams) (*SalesReturnItem, error) {
	if p.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("product ID cannot be empty")
	}
	if p.ProductName == "" {
		return nil, shared.NewValidationError("product name cannot be empty")
	}
	if p.Quantity.LessThan(decimal.NewFromInt(1)) {
		return nil, shared.NewValidationError("return quantity must be at least 1")
	}
	if p.Quantity.GreaterThan(p.MaxQuantity) {
		return nil, shared.NewQuantityExceededError(fmt.Sprintf(
			"return quantity %s exceeds quantity sold %s for %s",
			p.Quantity, p.MaxQuantity, p.ProductName))
	}
	if p.LooseQuantity.IsNegative() {
		return nil, shared.NewValidationError("loose quantity cannot be negative")
	}
	if p.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit price cannot be negative")
	}
	if p.TaxPercentage.IsNegative() {
		return nil, shared.NewValidationError("tax percentage cannot be negative")
	}

	condition := p.Condition
	if condition == "" {
		condition = ItemConditionGood
	}
	if !condition.IsValid() {
		return nil, shared.NewValidationError("invalid item condition: " + condition.String())
	}

	packSize := p.PackSize
	if packSize.IsZero() {
		packSize = decimal.NewFromInt(1)
	}

	now := time.Now()
	return &SalesReturnItem{
		ID:            uuid.New(),
		ReturnID:      returnID,
		ProductID:     p.ProductID,
		VariantID:     p.VariantID,
		ProductName:   p.ProductName,
		ProductCode:   p.ProductCode,
		Quantity:      p.Quantity,
		LooseQuantity: p.LooseQuantity,
		PackSize:      packSize,
		MaxQuantity:   p.MaxQuantity,
		UnitPrice:     p.UnitPrice,
		TaxPercentage: p.TaxPercentage,
		Condition:     condition,
		Reason:        p.Reason,
		RestockStatus: RestockStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// UpdateQuantity updates the return quantity within the sold bound
func (i *SalesReturnItem) UpdateQuantity(quantity, looseQuantity decimal.Decimal) error {
	if quantity.LessThan(decimal.NewFromInt(1)) {
		return shared.NewValidationError("return quantity must be at least 1")
	}
	if quantity.GreaterThan(i.MaxQuantity) {
		return shared.NewQuantityExceededError(fmt.Sprintf(
			"return quantity %s exceeds quantity sold %s for %s",
			quantity, i.MaxQuantity, i.ProductName))
	}
	if looseQuantity.IsNegative() {
		return shared.NewValidationError("loose quantity cannot be negative")
	}

	i.Quantity = quantity
	i.LooseQuantity = looseQuantity
	i.UpdatedAt = time.Now()
	return nil
}

// SetCondition sets the condition of the returned item
func (i *SalesReturnItem) SetCondition(condition ItemCondition) error {
	if !condition.IsValid() {
		return shared.NewValidationError("invalid item condition: " + condition.String())
	}
	i.Condition = condition
	i.UpdatedAt = time.Now()
	return nil
}

// SetReason sets the return reason for the item
func (i *SalesReturnItem) SetReason(reason string) {
	i.Reason = reason
	i.UpdatedAt = time.Now()
}

// markRestockRequested records that a restock was emitted for this item
func (i *SalesReturnItem) markRestockRequested(warehouseID uuid.UUID, at time.Time) {
	i.RestockStatus = RestockStatusRequested
	i.RestockWarehouseID = &warehouseID
	i.RestockedAt = &at
	i.UpdatedAt = at
}

// routeNonRestockable books a non-good item into its write-off bucket:
// defective goes to RMA (back to vendor), damaged and expired are scrapped.
func (i *SalesReturnItem) routeNonRestockable(at time.Time) {
	if i.Condition == ItemConditionDefective {
		i.RestockStatus = RestockStatusRMA
	} else {
		i.RestockStatus = RestockStatusScrapped
	}
	i.UpdatedAt = at
}

// SalesReturn is the aggregate root for a customer sales return. It
// owns its line items (deleted with it, never referenced elsewhere) and
// carries the refund settlement state alongside the approval lifecycle.
type SalesReturn struct {
	shared.TenantAggregateRoot
	ReturnNumber string
	ReturnDate   time.Time

	// Originating sale
	SalesRecordID uuid.UUID
	InvoiceNumber string
	InvoiceDate   time.Time

	// Customer snapshot
	CustomerID   uuid.UUID
	CustomerName string

	WarehouseID *uuid.UUID // default restock target
	Items       []SalesReturnItem

	// Pricing inputs
	GstIncluded  bool
	Discount     decimal.Decimal
	DiscountType billing.DiscountType

	// Computed totals, recomputed server-side at every status-changing write
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal

	// Refund settlement
	RefundType      RefundType
	RefundAmount    decimal.Decimal
	RefundStatus    RefundStatus
	RefundDate      *time.Time
	RefundReference string
	PointsIssued    int64

	StockReturned   bool
	StockReturnedAt *time.Time

	Status       ReturnStatus
	ReturnReason string
	Remark       string

	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	ApprovalNote    string
	RejectedAt      *time.Time
	RejectedBy      *uuid.UUID
	RejectionReason string
	CompletedAt     *time.Time
	CompletionNote  string
	CancelledAt     *time.Time
	CancelReason    string

	DeletedAt *time.Time
}

// SaleReference identifies the originating sale for a return
type SaleReference struct {
	SalesRecordID uuid.UUID
	InvoiceNumber string
	InvoiceDate   time.Time
}

// NewSalesReturn creates a new sales return in DRAFT status
func NewSalesReturn(
	tenantID uuid.UUID,
	returnNumber string,
	sale SaleReference,
	customerID uuid.UUID,
	customerName string,
) (*SalesReturn, error) {
	if returnNumber == "" {
		return nil, shared.NewValidationError("return number cannot be empty")
	}
	if len(returnNumber) > 50 {
		return nil, shared.NewValidationError("return number cannot exceed 50 characters")
	}
	if sale.SalesRecordID == uuid.Nil {
		return nil, shared.NewValidationError("sales record ID cannot be empty")
	}
	if sale.InvoiceNumber == "" {
		return nil, shared.NewValidationError("invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer ID cannot be empty")
	}

	sr := &SalesReturn{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReturnNumber:        returnNumber,
		ReturnDate:          time.Now(),
		SalesRecordID:       sale.SalesRecordID,
		InvoiceNumber:       sale.InvoiceNumber,
		InvoiceDate:         sale.InvoiceDate,
		CustomerID:          customerID,
		CustomerName:        customerName,
		Items:               make([]SalesReturnItem, 0),
		DiscountType:        billing.DiscountTypeAmount,
		Subtotal:            decimal.Zero,
		TaxAmount:           decimal.Zero,
		TotalAmount:         decimal.Zero,
		RefundType:          RefundTypeCash,
		RefundAmount:        decimal.Zero,
		RefundStatus:        RefundStatusPending,
		Status:              ReturnStatusDraft,
	}

	sr.AddDomainEvent(NewSalesReturnCreatedEvent(sr))

	return sr, nil
}

// AddItem adds a new item to the return. Only allowed in DRAFT status.
func (r *SalesReturn) AddItem(p NewItemParams) (*SalesReturnItem, error) {
	if r.Status != ReturnStatusDraft {
		return nil, shared.NewValidationError("cannot add items to a non-draft return")
	}

	for _, existing := range r.Items {
		if existing.ProductID == p.ProductID && equalVariant(existing.VariantID, p.VariantID) {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "item already exists in return, update quantity instead")
		}
	}

	item, err := NewSalesReturnItem(r.ID, p)
	if err != nil {
		return nil, err
	}

	r.Items = append(r.Items, *item)
	if err := r.RecalculateTotals(); err != nil {
		r.Items = r.Items[:len(r.Items)-1]
		return nil, err
	}
	r.UpdatedAt = time.Now()

	return item, nil
}

// UpdateItemQuantity updates the return quantity of an existing item.
// Only allowed in DRAFT status.
func (r *SalesReturn) UpdateItemQuantity(itemID uuid.UUID, quantity, looseQuantity decimal.Decimal) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewValidationError("cannot update items in a non-draft return")
	}

	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			if err := r.Items[idx].UpdateQuantity(quantity, looseQuantity); err != nil {
				return err
			}
			if err := r.RecalculateTotals(); err != nil {
				return err
			}
			r.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "return item not found")
}

// RemoveItem removes an item from the return. Only allowed in DRAFT status.
func (r *SalesReturn) RemoveItem(itemID uuid.UUID) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewValidationError("cannot remove items from a non-draft return")
	}

	for idx, item := range r.Items {
		if item.ID == itemID {
			r.Items = append(r.Items[:idx], r.Items[idx+1:]...)
			if len(r.Items) > 0 {
				if err := r.RecalculateTotals(); err != nil {
					return err
				}
			} else {
				r.Subtotal = decimal.Zero
				r.TaxAmount = decimal.Zero
				r.TotalAmount = decimal.Zero
				r.RefundAmount = decimal.Zero
			}
			r.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "return item not found")
}

// SetPricing sets the GST mode and document-level discount.
// Only allowed in DRAFT status.
func (r *SalesReturn) SetPricing(gstIncluded bool, discount decimal.Decimal, discountType billing.DiscountType) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewValidationError("cannot change pricing on a non-draft return")
	}
	if discount.IsNegative() {
		return shared.NewValidationError("discount cannot be negative")
	}
	if !discount.IsZero() && !discountType.IsValid() {
		return shared.NewValidationError("invalid discount type")
	}

	r.GstIncluded = gstIncluded
	r.Discount = discount
	if discountType != "" {
		r.DiscountType = discountType
	}
	r.UpdatedAt = time.Now()

	if len(r.Items) > 0 {
		return r.RecalculateTotals()
	}
	return nil
}

// SetRefundType sets how the refund will be settled.
// Only allowed in DRAFT status.
func (r *SalesReturn) SetRefundType(refundType RefundType) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewValidationError("cannot change refund type on a non-draft return")
	}
	if !refundType.IsValid() {
		return shared.NewValidationError("invalid refund type: " + refundType.String())
	}
	r.RefundType = refundType
	r.UpdatedAt = time.Now()
	return nil
}

// SetReason sets the overall return reason
func (r *SalesReturn) SetReason(reason string) {
	r.ReturnReason = reason
	r.UpdatedAt = time.Now()
}

// SetRemark sets the return remark
func (r *SalesReturn) SetRemark(remark string) {
	r.Remark = remark
	r.UpdatedAt = time.Now()
}

// SetWarehouse sets the default restock warehouse.
// Allowed until the return reaches a terminal state.
func (r *SalesReturn) SetWarehouse(warehouseID uuid.UUID) error {
	if r.Status.IsTerminal() {
		return shared.NewValidationError("cannot set warehouse on a finished return")
	}
	if warehouseID == uuid.Nil {
		return shared.NewValidationError("warehouse ID cannot be empty")
	}
	r.WarehouseID = &warehouseID
	r.UpdatedAt = time.Now()
	return nil
}

// RecalculateTotals recomputes subtotal, tax and total from the line
// items. Client-submitted totals are advisory only; this runs at every
// status-changing write. The refund amount always tracks the total.
func (r *SalesReturn) RecalculateTotals() error {
	if len(r.Items) == 0 {
		return shared.NewValidationError("cannot compute totals without items")
	}

	lines := make([]billing.LineInput, len(r.Items))
	for i, item := range r.Items {
		lines[i] = billing.LineInput{
			Quantity:      item.Quantity,
			LooseQuantity: item.LooseQuantity,
			PackSize:      item.PackSize,
			UnitPrice:     item.UnitPrice,
			TaxPercentage: item.TaxPercentage,
		}
	}

	totals, err := billing.Compute(lines, r.GstIncluded, r.Discount, r.DiscountType)
	if err != nil {
		return err
	}

	rounded := totals.Rounded()
	r.Subtotal = rounded.Subtotal
	r.TaxAmount = rounded.TotalGst
	r.TotalAmount = rounded.TotalAmount
	r.RefundAmount = rounded.TotalAmount
	for i := range r.Items {
		r.Items[i].LineTotal = rounded.Lines[i].Total
	}

	return nil
}

// Submit submits the return for approval.
// Transitions from DRAFT to PENDING_APPROVAL.
func (r *SalesReturn) Submit(actorID uuid.UUID, actorName, comments string) (*ReturnApproval, error) {
	if !r.Status.CanTransitionTo(ReturnStatusPendingApproval) {
		return nil, shared.NewStateConflictError(r.Status.String(), ReturnStatusPendingApproval.String())
	}
	if len(r.Items) == 0 {
		return nil, shared.NewValidationError("cannot submit return without items")
	}
	if r.ReturnReason == "" {
		return nil, shared.NewValidationError("return reason is required")
	}
	for _, item := range r.Items {
		if item.Quantity.LessThan(decimal.NewFromInt(1)) {
			return nil, shared.NewValidationError("return quantity must be at least 1 for " + item.ProductName)
		}
		if item.Quantity.GreaterThan(item.MaxQuantity) {
			return nil, shared.NewQuantityExceededError(fmt.Sprintf(
				"return quantity %s exceeds quantity sold %s for %s",
				item.Quantity, item.MaxQuantity, item.ProductName))
		}
	}

	if err := r.RecalculateTotals(); err != nil {
		return nil, err
	}

	prev := r.Status
	now := time.Now()
	r.Status = ReturnStatusPendingApproval
	r.SubmittedAt = &now
	r.UpdatedAt = now

	audit, err := NewReturnApproval(r, ApprovalActionSubmit, actorID, actorName, comments, prev, r.Status)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(NewSalesReturnSubmittedEvent(r))

	return audit, nil
}

// Approve approves the return.
// Transitions from PENDING_APPROVAL to APPROVED. Totals are recomputed
// before the transition; settlement is executed by the caller in the
// same unit of work.
func (r *SalesReturn) Approve(approverID uuid.UUID, approverName, note string) (*ReturnApproval, error) {
	if !r.Status.CanTransitionTo(ReturnStatusApproved) {
		return nil, shared.NewStateConflictError(r.Status.String(), ReturnStatusApproved.String())
	}
	if approverID == uuid.Nil {
		return nil, shared.NewValidationError("approver ID cannot be empty")
	}

	if err := r.RecalculateTotals(); err != nil {
		return nil, err
	}

	prev := r.Status
	now := time.Now()
	r.Status = ReturnStatusApproved
	r.ApprovedAt = &now
	r.ApprovedBy = &approverID
	r.ApprovalNote = note
	r.UpdatedAt = now

	audit, err := NewReturnApproval(r, ApprovalActionApprove, approverID, approverName, note, prev, r.Status)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(NewSalesReturnApprovedEvent(r))

	return audit, nil
}

// Reject rejects the return.
// Transitions from PENDING_APPROVAL or APPROVED to REJECTED.
func (r *SalesReturn) Reject(rejecterID uuid.UUID, rejecterName, reason string) (*ReturnApproval, error) {
	if !r.Status.CanTransitionTo(ReturnStatusRejected) {
		return nil, shared.NewStateConflictError(r.Status.String(), ReturnStatusRejected.String())
	}
	if rejecterID == uuid.Nil {
		return nil, shared.NewValidationError("rejecter ID cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewValidationError("rejection reason is required")
	}

	prev := r.Status
	now := time.Now()
	r.Status = ReturnStatusRejected
	r.RejectedAt = &now
	r.RejectedBy = &rejecterID
	r.RejectionReason = reason
	r.UpdatedAt = now

	audit, err := NewReturnApproval(r, ApprovalActionReject, rejecterID, rejecterName, reason, prev, r.Status)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(NewSalesReturnRejectedEvent(r))

	return audit, nil
}

// Complete marks the refund settlement final.
// Transitions from APPROVED to COMPLETED; no mutation is possible afterward.
func (r *SalesReturn) Complete(actorID uuid.UUID, actorName, notes string) (*ReturnApproval, error) {
	if !r.Status.CanTransitionTo(ReturnStatusCompleted) {
		return nil, shared.NewStateConflictError(r.Status.String(), ReturnStatusCompleted.String())
	}
	if r.RefundStatus != RefundStatusCompleted {
		return nil, shared.NewValidationError("refund settlement is not complete")
	}

	prev := r.Status
	now := time.Now()
	r.Status = ReturnStatusCompleted
	r.CompletedAt = &now
	r.CompletionNote = notes
	r.UpdatedAt = now

	audit, err := NewReturnApproval(r, ApprovalActionComplete, actorID, actorName, notes, prev, r.Status)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(NewSalesReturnCompletedEvent(r))

	return audit, nil
}

// Cancel cancels the return from any non-terminal status. Cancellation
// never reverses an already-applied restock or points credit; that is a
// separate compensating action picked up via the WasApproved event flag.
func (r *SalesReturn) Cancel(actorID uuid.UUID, actorName, reason string) (*ReturnApproval, error) {
	if !r.Status.CanTransitionTo(ReturnStatusCancelled) {
		return nil, shared.NewStateConflictError(r.Status.String(), ReturnStatusCancelled.String())
	}
	if actorID == uuid.Nil {
		return nil, shared.NewValidationError("actor ID cannot be empty")
	}

	wasApproved := r.Status == ReturnStatusApproved
	prev := r.Status
	now := time.Now()
	r.Status = ReturnStatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now

	audit, err := NewReturnApproval(r, ApprovalActionCancel, actorID, actorName, reason, prev, r.Status)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(NewSalesReturnCancelledEvent(r, wasApproved))

	return audit, nil
}

// SettleMonetaryRefund marks a cash/card/UPI/bank-transfer refund as
// settled against the return record.
func (r *SalesReturn) SettleMonetaryRefund(reference string) error {
	if !r.RefundType.IsMonetary() {
		return shared.NewValidationError("refund type " + r.RefundType.String() + " is not a monetary settlement")
	}
	if r.RefundStatus == RefundStatusCompleted {
		return nil // already settled
	}
	now := time.Now()
	r.RefundStatus = RefundStatusCompleted
	r.RefundDate = &now
	r.RefundReference = reference
	r.UpdatedAt = now
	return nil
}

// SettlePointsRefund converts the refund amount into whole loyalty
// points (1 point = 1 rupee, sub-unit remainder forfeited) and marks
// the refund settled.
func (r *SalesReturn) SettlePointsRefund() (int64, error) {
	if r.RefundType != RefundTypePoints {
		return 0, shared.NewValidationError("refund type is not points")
	}
	if r.RefundStatus == RefundStatusCompleted {
		return r.PointsIssued, nil
	}

	points := r.RefundMoney().WholeUnits()
	now := time.Now()
	r.PointsIssued = points
	r.RefundStatus = RefundStatusCompleted
	r.RefundDate = &now
	r.UpdatedAt = now
	return points, nil
}

// RestockableItems returns the items eligible for restocking
func (r *SalesReturn) RestockableItems() []*SalesReturnItem {
	var out []*SalesReturnItem
	for idx := range r.Items {
		if r.Items[idx].Condition.Restockable() {
			out = append(out, &r.Items[idx])
		}
	}
	return out
}

// MarkRestocked records the outcome of the restock pass: restockable
// items become REQUESTED against the given warehouse, everything else
// is routed to its scrap/RMA bucket, and the aggregate's stock flag is set.
func (r *SalesReturn) MarkRestocked(warehouseID uuid.UUID) {
	now := time.Now()
	for idx := range r.Items {
		if r.Items[idx].Condition.Restockable() {
			r.Items[idx].markRestockRequested(warehouseID, now)
		} else {
			r.Items[idx].routeNonRestockable(now)
		}
	}
	r.StockReturned = true
	r.StockReturnedAt = &now
	r.UpdatedAt = now
}

// RouteNonRestockableItems books damaged/expired/defective items into
// their write-off buckets without touching restockable ones. Used when
// auto-restock is disabled.
func (r *SalesReturn) RouteNonRestockableItems() {
	now := time.Now()
	for idx := range r.Items {
		if !r.Items[idx].Condition.Restockable() {
			r.Items[idx].routeNonRestockable(now)
		}
	}
	r.UpdatedAt = now
}

// SoftDelete marks a draft return as deleted. Only drafts can be deleted.
func (r *SalesReturn) SoftDelete() error {
	if r.Status != ReturnStatusDraft {
		return shared.NewStateConflictError(r.Status.String(), "DELETED")
	}
	now := time.Now()
	r.DeletedAt = &now
	r.UpdatedAt = now
	return nil
}

// RefundMoney returns the refund amount as a Money value.
func (r *SalesReturn) RefundMoney() valueobject.Money {
	return valueobject.NewMoneyINR(r.RefundAmount)
}

// ItemCount returns the number of items in the return
func (r *SalesReturn) ItemCount() int {
	return len(r.Items)
}

// IsDraft returns true if return is in draft status
func (r *SalesReturn) IsDraft() bool {
	return r.Status == ReturnStatusDraft
}

// IsPendingApproval returns true if return is pending approval
func (r *SalesReturn) IsPendingApproval() bool {
	return r.Status == ReturnStatusPendingApproval
}

// IsApproved returns true if return is approved
func (r *SalesReturn) IsApproved() bool {
	return r.Status == ReturnStatusApproved
}

// IsTerminal returns true if return is in a terminal state
func (r *SalesReturn) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// CanModify returns true if the return can be modified
func (r *SalesReturn) CanModify() bool {
	return r.IsDraft()
}

// GetItem returns an item by its ID
func (r *SalesReturn) GetItem(itemID uuid.UUID) *SalesReturnItem {
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			return &r.Items[idx]
		}
	}
	return nil
}

func equalVariant(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
