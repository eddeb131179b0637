package returns

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailbill/backend/internal/domain/shared"
)

const aggregateTypeSalesReturn = "SalesReturn"

// Event types for sales returns
const (
	EventTypeSalesReturnCreated   = "sales_return.created"
	EventTypeSalesReturnSubmitted = "sales_return.submitted"
	EventTypeSalesReturnApproved  = "sales_return.approved"
	EventTypeSalesReturnRejected  = "sales_return.rejected"
	EventTypeSalesReturnCompleted = "sales_return.completed"
	EventTypeSalesReturnCancelled = "sales_return.cancelled"
)

// SalesReturnCreatedEvent is published when a return draft is created
type SalesReturnCreatedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber  string    `json:"return_number"`
	SalesRecordID uuid.UUID `json:"sales_record_id"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
}

// NewSalesReturnCreatedEvent creates a new created event
func NewSalesReturnCreatedEvent(sr *SalesReturn) *SalesReturnCreatedEvent {
	return &SalesReturnCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnCreated, aggregateTypeSalesReturn, sr.ID, sr.TenantID),
		ReturnNumber:    sr.ReturnNumber,
		SalesRecordID:   sr.SalesRecordID,
		InvoiceNumber:   sr.InvoiceNumber,
		CustomerID:      sr.CustomerID,
	}
}

// SalesReturnSubmittedEvent is published when a return is submitted for approval
type SalesReturnSubmittedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	RefundType   RefundType      `json:"refund_type"`
	ItemCount    int             `json:"item_count"`
}

// NewSalesReturnSubmittedEvent creates a new submitted event
func NewSalesReturnSubmittedEvent(sr *SalesReturn) *SalesReturnSubmittedEvent {
	return &SalesReturnSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnSubmitted, aggregateTypeSalesReturn, sr.ID, sr.TenantID),
		ReturnNumber:    sr.ReturnNumber,
		TotalAmount:     sr.TotalAmount,
		RefundType:      sr.RefundType,
		ItemCount:       len(sr.Items),
	}
}

// SalesReturnApprovedEvent is published when a return is approved
type SalesReturnApprovedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	RefundType   RefundType      `json:"refund_type"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	ApprovedBy   uuid.UUID       `json:"approved_by"`
	CustomerID   uuid.UUID       `json:"customer_id"`
}

// NewSalesReturnApprovedEvent creates a new approved event
func NewSalesReturnApprovedEvent(sr *SalesReturn) *SalesReturnApprovedEvent {
	var approvedBy uuid.UUID
	if sr.ApprovedBy != nil {
		approvedBy = *sr.ApprovedBy
	}
	return &SalesReturnApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnApproved, aggregateTypeSalesReturn, sr.ID, sr.TenantID),
		ReturnNumber:    sr.ReturnNumber,
		RefundType:      sr.RefundType,
		RefundAmount:    sr.RefundAmount,
		ApprovedBy:      approvedBy,
		CustomerID:      sr.CustomerID,
	}
}

// SalesReturnRejectedEvent is published when a return is rejected
type SalesReturnRejectedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string    `json:"return_number"`
	RejectedBy   uuid.UUID `json:"rejected_by"`
	Reason       string    `json:"reason"`
}

// NewSalesReturnRejectedEvent creates a new rejected event
func NewSalesReturnRejectedEvent(sr *SalesReturn) *SalesReturnRejectedEvent {
	var rejectedBy uuid.UUID
	if sr.RejectedBy != nil {
		rejectedBy = *sr.RejectedBy
	}
	return &SalesReturnRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnRejected, aggregateTypeSalesReturn, sr.ID, sr.TenantID),
		ReturnNumber:    sr.ReturnNumber,
		RejectedBy:      rejectedBy,
		Reason:          sr.RejectionReason,
	}
}

// SalesReturnCompletedEvent is published when a return settlement is finalised
type SalesReturnCompletedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	RefundType   RefundType      `json:"refund_type"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	PointsIssued int64           `json:"points_issued,omitempty"`
}

// NewSalesReturnCompletedEvent creates a new completed event
func NewSalesReturnCompletedEvent(sr *SalesReturn) *SalesReturnCompletedEvent {
	return &SalesReturnCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnCompleted, aggregateTypeSalesReturn, sr.ID, sr.TenantID),
		ReturnNumber:    sr.ReturnNumber,
		RefundType:      sr.RefundType,
		RefundAmount:    sr.RefundAmount,
		PointsIssued:    sr.PointsIssued,
	}
}

// SalesReturnCancelledEvent is published when a return is cancelled.
// WasApproved tells subscribers whether settlement side effects had
// already been applied and may need compensating.
type SalesReturnCancelledEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string `json:"return_number"`
	Reason       string `json:"reason"`
	WasApproved  bool   `json:"was_approved"`
}

// NewSalesReturnCancelledEvent creates a new cancelled event
func NewSalesReturnCancelledEvent(sr *SalesReturn, wasApproved bool) *SalesReturnCancelledEvent {
	return &SalesReturnCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesReturnCancelled, aggregateTypeSalesReturn, sr.ID, sr.TenantID),
		ReturnNumber:    sr.ReturnNumber,
		Reason:          sr.CancelReason,
		WasApproved:     wasApproved,
	}
}
