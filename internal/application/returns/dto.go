package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailbill/backend/internal/domain/billing"
	"github.com/retailbill/backend/internal/domain/returns"
)

// CreateSalesReturnRequest represents a request to create a sales return
type CreateSalesReturnRequest struct {
	SalesRecordID uuid.UUID                    `json:"sales_record_id" binding:"required"`
	InvoiceNumber string                       `json:"invoice_number" binding:"required,max=50"`
	InvoiceDate   time.Time                    `json:"invoice_date" binding:"required"`
	CustomerID    uuid.UUID                    `json:"customer_id" binding:"required"`
	CustomerName  string                       `json:"customer_name" binding:"max=200"`
	WarehouseID   *uuid.UUID                   `json:"warehouse_id"`
	BranchID      *uuid.UUID                   `json:"branch_id"`
	Items         []CreateSalesReturnItemInput `json:"items" binding:"required,min=1"`
	GstIncluded   bool                         `json:"gst_included"`
	Discount      decimal.Decimal              `json:"discount"`
	DiscountType  string                       `json:"discount_type" binding:"omitempty,oneof=PERCENTAGE AMOUNT"`
	RefundType    string                       `json:"refund_type" binding:"omitempty,oneof=CASH CARD UPI BANK_TRANSFER POINTS"`
	Reason        string                       `json:"reason" binding:"max=500"`
	Remark        string                       `json:"remark" binding:"max=1000"`
	CreatedBy     *uuid.UUID                   `json:"-"`
}

// CreateSalesReturnItemInput represents an item in the create return request
type CreateSalesReturnItemInput struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	VariantID     *uuid.UUID      `json:"variant_id"`
	ProductName   string          `json:"product_name" binding:"required,max=200"`
	ProductCode   string          `json:"product_code" binding:"max=100"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	LooseQuantity decimal.Decimal `json:"loose_quantity"`
	PackSize      decimal.Decimal `json:"pack_size"`
	MaxQuantity   decimal.Decimal `json:"max_quantity" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price" binding:"required"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	Condition     string          `json:"condition" binding:"omitempty,oneof=GOOD DAMAGED EXPIRED DEFECTIVE"`
	Reason        string          `json:"reason" binding:"max=500"`
}

// UpdateSalesReturnRequest represents a request to update a sales return (only in DRAFT status)
type UpdateSalesReturnRequest struct {
	WarehouseID  *uuid.UUID       `json:"warehouse_id"`
	GstIncluded  *bool            `json:"gst_included"`
	Discount     *decimal.Decimal `json:"discount"`
	DiscountType *string          `json:"discount_type" binding:"omitempty,oneof=PERCENTAGE AMOUNT"`
	RefundType   *string          `json:"refund_type" binding:"omitempty,oneof=CASH CARD UPI BANK_TRANSFER POINTS"`
	Reason       *string          `json:"reason" binding:"omitempty,max=500"`
	Remark       *string          `json:"remark" binding:"omitempty,max=1000"`
}

// AddReturnItemRequest represents a request to add an item to a return
type AddReturnItemRequest struct {
	CreateSalesReturnItemInput
}

// UpdateReturnItemRequest represents a request to update a return item
type UpdateReturnItemRequest struct {
	Quantity      *decimal.Decimal `json:"quantity"`
	LooseQuantity *decimal.Decimal `json:"loose_quantity"`
	Condition     *string          `json:"condition" binding:"omitempty,oneof=GOOD DAMAGED EXPIRED DEFECTIVE"`
	Reason        *string          `json:"reason" binding:"omitempty,max=500"`
}

// SubmitReturnRequest represents a request to submit a return for approval
type SubmitReturnRequest struct {
	Comments string `json:"comments" binding:"max=500"`
}

// ApproveReturnRequest represents a request to approve a return.
// AutoRestock defaults to true when omitted.
type ApproveReturnRequest struct {
	Note        string `json:"note" binding:"max=500"`
	AutoRestock *bool  `json:"auto_restock"`
}

// RejectReturnRequest represents a request to reject a return
type RejectReturnRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CompleteReturnRequest represents a request to complete a return
type CompleteReturnRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// CancelReturnRequest represents a request to cancel a return
type CancelReturnRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SalesReturnListFilter represents filter options for sales return list
type SalesReturnListFilter struct {
	Search        string                `form:"search"`
	CustomerID    *uuid.UUID            `form:"customer_id"`
	SalesRecordID *uuid.UUID            `form:"sales_record_id"`
	WarehouseID   *uuid.UUID            `form:"warehouse_id"`
	Status        *returns.ReturnStatus `form:"status"`
	Statuses      []string              `form:"statuses"`
	RefundType    *returns.RefundType   `form:"refund_type"`
	StartDate     *time.Time            `form:"start_date"`
	EndDate       *time.Time            `form:"end_date"`
	MinAmount     *decimal.Decimal      `form:"min_amount"`
	MaxAmount     *decimal.Decimal      `form:"max_amount"`
	Page          int                   `form:"page" binding:"min=0"`
	PageSize      int                   `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string                `form:"order_by"`
	OrderDir      string                `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SalesReturnResponse represents a sales return in API responses
type SalesReturnResponse struct {
	ID              uuid.UUID                 `json:"id"`
	TenantID        uuid.UUID                 `json:"tenant_id"`
	BranchID        *uuid.UUID                `json:"branch_id,omitempty"`
	ReturnNumber    string                    `json:"return_number"`
	ReturnDate      time.Time                 `json:"return_date"`
	SalesRecordID   uuid.UUID                 `json:"sales_record_id"`
	InvoiceNumber   string                    `json:"invoice_number"`
	InvoiceDate     time.Time                 `json:"invoice_date"`
	CustomerID      uuid.UUID                 `json:"customer_id"`
	CustomerName    string                    `json:"customer_name"`
	WarehouseID     *uuid.UUID                `json:"warehouse_id,omitempty"`
	Items           []SalesReturnItemResponse `json:"items"`
	ItemCount       int                       `json:"item_count"`
	GstIncluded     bool                      `json:"gst_included"`
	Discount        decimal.Decimal           `json:"discount"`
	DiscountType    string                    `json:"discount_type"`
	Subtotal        decimal.Decimal           `json:"subtotal"`
	TaxAmount       decimal.Decimal           `json:"tax_amount"`
	TotalAmount     decimal.Decimal           `json:"total_amount"`
	RefundType      string                    `json:"refund_type"`
	RefundAmount    decimal.Decimal           `json:"refund_amount"`
	RefundStatus    string                    `json:"refund_status"`
	RefundDate      *time.Time                `json:"refund_date,omitempty"`
	RefundReference string                    `json:"refund_reference,omitempty"`
	PointsIssued    int64                     `json:"points_issued,omitempty"`
	StockReturned   bool                      `json:"stock_returned"`
	StockReturnedAt *time.Time                `json:"stock_returned_at,omitempty"`
	Status          string                    `json:"status"`
	Reason          string                    `json:"reason,omitempty"`
	Remark          string                    `json:"remark,omitempty"`
	SubmittedAt     *time.Time                `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time                `json:"approved_at,omitempty"`
	ApprovedBy      *uuid.UUID                `json:"approved_by,omitempty"`
	ApprovalNote    string                    `json:"approval_note,omitempty"`
	RejectedAt      *time.Time                `json:"rejected_at,omitempty"`
	RejectedBy      *uuid.UUID                `json:"rejected_by,omitempty"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	CompletedAt     *time.Time                `json:"completed_at,omitempty"`
	CompletionNote  string                    `json:"completion_note,omitempty"`
	CancelledAt     *time.Time                `json:"cancelled_at,omitempty"`
	CancelReason    string                    `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
	Version         int                       `json:"version"`
}

// SalesReturnListItemResponse represents a sales return in list responses (less detail)
type SalesReturnListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ReturnNumber  string          `json:"return_number"`
	ReturnDate    time.Time       `json:"return_date"`
	SalesRecordID uuid.UUID       `json:"sales_record_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	ItemCount     int             `json:"item_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	RefundType    string          `json:"refund_type"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	RefundStatus  string          `json:"refund_status"`
	Status        string          `json:"status"`
	SubmittedAt   *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SalesReturnItemResponse represents a return item in API responses
type SalesReturnItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	VariantID          *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName        string          `json:"product_name"`
	ProductCode        string          `json:"product_code,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	LooseQuantity      decimal.Decimal `json:"loose_quantity"`
	PackSize           decimal.Decimal `json:"pack_size"`
	MaxQuantity        decimal.Decimal `json:"max_quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	LineTotal          decimal.Decimal `json:"line_total"`
	Condition          string          `json:"condition"`
	Reason             string          `json:"reason,omitempty"`
	RestockStatus      string          `json:"restock_status"`
	RestockWarehouseID *uuid.UUID      `json:"restock_warehouse_id,omitempty"`
	RestockedAt        *time.Time      `json:"restocked_at,omitempty"`
}

// ReturnApprovalResponse represents an audit trail record in API responses
type ReturnApprovalResponse struct {
	ID             uuid.UUID `json:"id"`
	ReturnID       uuid.UUID `json:"return_id"`
	ReturnNumber   string    `json:"return_number"`
	Action         string    `json:"action"`
	ActorID        uuid.UUID `json:"actor_id"`
	ActorName      string    `json:"actor_name,omitempty"`
	Comments       string    `json:"comments,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReturnStatsResponse represents dashboard statistics for returns
type ReturnStatsResponse struct {
	CountsByStatus map[string]int64  `json:"counts_by_status"`
	RefundsByType  map[string]string `json:"refunds_by_type"`
	From           time.Time         `json:"from"`
	To             time.Time         `json:"to"`
}

// ToSalesReturnResponse converts domain SalesReturn to response DTO
func ToSalesReturnResponse(sr *returns.SalesReturn) SalesReturnResponse {
	items := make([]SalesReturnItemResponse, len(sr.Items))
	for i := range sr.Items {
		items[i] = ToSalesReturnItemResponse(&sr.Items[i])
	}

	return SalesReturnResponse{
		ID:              sr.ID,
		TenantID:        sr.TenantID,
		BranchID:        sr.BranchID,
		ReturnNumber:    sr.ReturnNumber,
		ReturnDate:      sr.ReturnDate,
		SalesRecordID:   sr.SalesRecordID,
		InvoiceNumber:   sr.InvoiceNumber,
		InvoiceDate:     sr.InvoiceDate,
		CustomerID:      sr.CustomerID,
		CustomerName:    sr.CustomerName,
		WarehouseID:     sr.WarehouseID,
		Items:           items,
		ItemCount:       len(items),
		GstIncluded:     sr.GstIncluded,
		Discount:        sr.Discount,
		DiscountType:    string(sr.DiscountType),
		Subtotal:        sr.Subtotal,
		TaxAmount:       sr.TaxAmount,
		TotalAmount:     sr.TotalAmount,
		RefundType:      sr.RefundType.String(),
		RefundAmount:    sr.RefundAmount,
		RefundStatus:    sr.RefundStatus.String(),
		RefundDate:      sr.RefundDate,
		RefundReference: sr.RefundReference,
		PointsIssued:    sr.PointsIssued,
		StockReturned:   sr.StockReturned,
		StockReturnedAt: sr.StockReturnedAt,
		Status:          sr.Status.String(),
		Reason:          sr.ReturnReason,
		Remark:          sr.Remark,
		SubmittedAt:     sr.SubmittedAt,
		ApprovedAt:      sr.ApprovedAt,
		ApprovedBy:      sr.ApprovedBy,
		ApprovalNote:    sr.ApprovalNote,
		RejectedAt:      sr.RejectedAt,
		RejectedBy:      sr.RejectedBy,
		RejectionReason: sr.RejectionReason,
		CompletedAt:     sr.CompletedAt,
		CompletionNote:  sr.CompletionNote,
		CancelledAt:     sr.CancelledAt,
		CancelReason:    sr.CancelReason,
		CreatedAt:       sr.CreatedAt,
		UpdatedAt:       sr.UpdatedAt,
		Version:         sr.Version,
	}
}

// ToSalesReturnItemResponse converts a domain item to response DTO
func ToSalesReturnItemResponse(item *returns.SalesReturnItem) SalesReturnItemResponse {
	return SalesReturnItemResponse{
		ID:                 item.ID,
		ProductID:          item.ProductID,
		VariantID:          item.VariantID,
		ProductName:        item.ProductName,
		ProductCode:        item.ProductCode,
		Quantity:           item.Quantity,
		LooseQuantity:      item.LooseQuantity,
		PackSize:           item.PackSize,
		MaxQuantity:        item.MaxQuantity,
		UnitPrice:          item.UnitPrice,
		TaxPercentage:      item.TaxPercentage,
		LineTotal:          item.LineTotal,
		Condition:          item.Condition.String(),
		Reason:             item.Reason,
		RestockStatus:      item.RestockStatus.String(),
		RestockWarehouseID: item.RestockWarehouseID,
		RestockedAt:        item.RestockedAt,
	}
}

// ToSalesReturnListItemResponse converts a domain return to a list item DTO
func ToSalesReturnListItemResponse(sr *returns.SalesReturn) SalesReturnListItemResponse {
	return SalesReturnListItemResponse{
		ID:            sr.ID,
		ReturnNumber:  sr.ReturnNumber,
		ReturnDate:    sr.ReturnDate,
		SalesRecordID: sr.SalesRecordID,
		InvoiceNumber: sr.InvoiceNumber,
		CustomerID:    sr.CustomerID,
		CustomerName:  sr.CustomerName,
		ItemCount:     len(sr.Items),
		TotalAmount:   sr.TotalAmount,
		RefundType:    sr.RefundType.String(),
		RefundAmount:  sr.RefundAmount,
		RefundStatus:  sr.RefundStatus.String(),
		Status:        sr.Status.String(),
		SubmittedAt:   sr.SubmittedAt,
		ApprovedAt:    sr.ApprovedAt,
		CompletedAt:   sr.CompletedAt,
		CreatedAt:     sr.CreatedAt,
		UpdatedAt:     sr.UpdatedAt,
	}
}

// ToSalesReturnListItemResponses converts a slice of domain returns
func ToSalesReturnListItemResponses(items []returns.SalesReturn) []SalesReturnListItemResponse {
	out := make([]SalesReturnListItemResponse, len(items))
	for i := range items {
		out[i] = ToSalesReturnListItemResponse(&items[i])
	}
	return out
}

// ToReturnApprovalResponse converts an audit record to response DTO
func ToReturnApprovalResponse(a *returns.ReturnApproval) ReturnApprovalResponse {
	return ReturnApprovalResponse{
		ID:             a.ID,
		ReturnID:       a.ReturnID,
		ReturnNumber:   a.ReturnNumber,
		Action:         a.Action.String(),
		ActorID:        a.ActorID,
		ActorName:      a.ActorName,
		Comments:       a.Comments,
		PreviousStatus: a.PreviousStatus.String(),
		NewStatus:      a.NewStatus.String(),
		CreatedAt:      a.CreatedAt,
	}
}

// ToReturnApprovalResponses converts a slice of audit records
func ToReturnApprovalResponses(items []returns.ReturnApproval) []ReturnApprovalResponse {
	out := make([]ReturnApprovalResponse, len(items))
	for i := range items {
		out[i] = ToReturnApprovalResponse(&items[i])
	}
	return out
}

func parseDiscountType(s string) billing.DiscountType {
	if s == "" {
		return billing.DiscountTypeAmount
	}
	return billing.DiscountType(s)
}

func parseRefundType(s string) returns.RefundType {
	if s == "" {
		return returns.RefundTypeCash
	}
	return returns.RefundType(s)
}
