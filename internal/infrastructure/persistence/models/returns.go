package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailbill/backend/internal/domain/billing"
	"github.com/retailbill/backend/internal/domain/returns"
)

// SalesReturnModel is the persistence model for the SalesReturn aggregate root.
type SalesReturnModel struct {
	TenantAggregateModel
	ReturnNumber string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_return_tenant_number,priority:2"`
	ReturnDate   time.Time `gorm:"not null;index"`

	SalesRecordID uuid.UUID `gorm:"type:uuid;not null;index"`
	InvoiceNumber string    `gorm:"type:varchar(50);not null"`
	InvoiceDate   time.Time `gorm:"not null"`

	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName string    `gorm:"type:varchar(200)"`

	WarehouseID *uuid.UUID             `gorm:"type:uuid;index"`
	Items       []SalesReturnItemModel `gorm:"foreignKey:ReturnID;references:ID"`

	GstIncluded  bool                 `gorm:"not null;default:false"`
	Discount     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountType billing.DiscountType `gorm:"type:varchar(20);not null;default:'AMOUNT'"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	RefundType      returns.RefundType   `gorm:"type:varchar(20);not null;default:'CASH'"`
	RefundAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	RefundStatus    returns.RefundStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RefundDate      *time.Time
	RefundReference string `gorm:"type:varchar(100)"`
	PointsIssued    int64  `gorm:"not null;default:0"`

	StockReturned   bool `gorm:"not null;default:false"`
	StockReturnedAt *time.Time

	Status       returns.ReturnStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ReturnReason string               `gorm:"type:text"`
	Remark       string               `gorm:"type:text"`

	SubmittedAt     *time.Time `gorm:"index"`
	ApprovedAt      *time.Time `gorm:"index"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovalNote    string     `gorm:"type:varchar(500)"`
	RejectedAt      *time.Time
	RejectedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason string     `gorm:"type:varchar(500)"`
	CompletedAt     *time.Time
	CompletionNote  string `gorm:"type:varchar(500)"`
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`

	DeletedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (SalesReturnModel) TableName() string {
	return "sales_returns"
}

// ToDomain converts the persistence model to a domain SalesReturn entity.
func (m *SalesReturnModel) ToDomain() *returns.SalesReturn {
	sr := &returns.SalesReturn{
		ReturnNumber:    m.ReturnNumber,
		ReturnDate:      m.ReturnDate,
		SalesRecordID:   m.SalesRecordID,
		InvoiceNumber:   m.InvoiceNumber,
		InvoiceDate:     m.InvoiceDate,
		CustomerID:      m.CustomerID,
		CustomerName:    m.CustomerName,
		WarehouseID:     m.WarehouseID,
		GstIncluded:     m.GstIncluded,
		Discount:        m.Discount,
		DiscountType:    m.DiscountType,
		Subtotal:        m.Subtotal,
		TaxAmount:       m.TaxAmount,
		TotalAmount:     m.TotalAmount,
		RefundType:      m.RefundType,
		RefundAmount:    m.RefundAmount,
		RefundStatus:    m.RefundStatus,
		RefundDate:      m.RefundDate,
		RefundReference: m.RefundReference,
		PointsIssued:    m.PointsIssued,
		StockReturned:   m.StockReturned,
		StockReturnedAt: m.StockReturnedAt,
		Status:          m.Status,
		ReturnReason:    m.ReturnReason,
		Remark:          m.Remark,
		SubmittedAt:     m.SubmittedAt,
		ApprovedAt:      m.ApprovedAt,
		ApprovedBy:      m.ApprovedBy,
		ApprovalNote:    m.ApprovalNote,
		RejectedAt:      m.RejectedAt,
		RejectedBy:      m.RejectedBy,
		RejectionReason: m.RejectionReason,
		CompletedAt:     m.CompletedAt,
		CompletionNote:  m.CompletionNote,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
		DeletedAt:       m.DeletedAt,
		Items:           make([]returns.SalesReturnItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&sr.TenantAggregateRoot)
	for i, item := range m.Items {
		sr.Items[i] = *item.ToDomain()
	}
	return sr
}

// FromDomain populates the persistence model from a domain SalesReturn entity.
func (m *SalesReturnModel) FromDomain(sr *returns.SalesReturn) {
	m.FromDomainTenantAggregateRoot(sr.TenantAggregateRoot)
	m.ReturnNumber = sr.ReturnNumber
	m.ReturnDate = sr.ReturnDate
	m.SalesRecordID = sr.SalesRecordID
	m.InvoiceNumber = sr.InvoiceNumber
	m.InvoiceDate = sr.InvoiceDate
	m.CustomerID = sr.CustomerID
	m.CustomerName = sr.CustomerName
	m.WarehouseID = sr.WarehouseID
	m.GstIncluded = sr.GstIncluded
	m.Discount = sr.Discount
	m.DiscountType = sr.DiscountType
	m.Subtotal = sr.Subtotal
	m.TaxAmount = sr.TaxAmount
	m.TotalAmount = sr.TotalAmount
	m.RefundType = sr.RefundType
	m.RefundAmount = sr.RefundAmount
	m.RefundStatus = sr.RefundStatus
	m.RefundDate = sr.RefundDate
	m.RefundReference = sr.RefundReference
	m.PointsIssued = sr.PointsIssued
	m.StockReturned = sr.StockReturned
	m.StockReturnedAt = sr.StockReturnedAt
	m.Status = sr.Status
	m.ReturnReason = sr.ReturnReason
	m.Remark = sr.Remark
	m.SubmittedAt = sr.SubmittedAt
	m.ApprovedAt = sr.ApprovedAt
	m.ApprovedBy = sr.ApprovedBy
	m.ApprovalNote = sr.ApprovalNote
	m.RejectedAt = sr.RejectedAt
	m.RejectedBy = sr.RejectedBy
	m.RejectionReason = sr.RejectionReason
	m.CompletedAt = sr.CompletedAt
	m.CompletionNote = sr.CompletionNote
	m.CancelledAt = sr.CancelledAt
	m.CancelReason = sr.CancelReason
	m.DeletedAt = sr.DeletedAt
	m.Items = make([]SalesReturnItemModel, len(sr.Items))
	for i, item := range sr.Items {
		m.Items[i] = *SalesReturnItemModelFromDomain(&item)
	}
}

// SalesReturnModelFromDomain creates a new persistence model from a domain SalesReturn entity.
func SalesReturnModelFromDomain(sr *returns.SalesReturn) *SalesReturnModel {
	m := &SalesReturnModel{}
	m.FromDomain(sr)
	return m
}

// SalesReturnItemModel is the persistence model for the SalesReturnItem entity.
type SalesReturnItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID          *uuid.UUID      `gorm:"type:uuid"`
	ProductName        string          `gorm:"type:varchar(200);not null"`
	ProductCode        string          `gorm:"type:varchar(50)"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LooseQuantity      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PackSize           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	MaxQuantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxPercentage      decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	LineTotal          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Condition          returns.ItemCondition `gorm:"type:varchar(20);not null;default:'GOOD'"`
	Reason             string                `gorm:"type:varchar(500)"`
	RestockStatus      returns.RestockStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RestockWarehouseID *uuid.UUID            `gorm:"type:uuid"`
	RestockedAt        *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesReturnItemModel) TableName() string {
	return "sales_return_items"
}

// ToDomain converts the persistence model to a domain SalesReturnItem entity.
func (m *SalesReturnItemModel) ToDomain() *returns.SalesReturnItem {
	return &returns.SalesReturnItem{
		ID:                 m.ID,
		ReturnID:           m.ReturnID,
		ProductID:          m.ProductID,
		VariantID:          m.VariantID,
		ProductName:        m.ProductName,
		ProductCode:        m.ProductCode,
		Quantity:           m.Quantity,
		LooseQuantity:      m.LooseQuantity,
		PackSize:           m.PackSize,
		MaxQuantity:        m.MaxQuantity,
		UnitPrice:          m.UnitPrice,
		TaxPercentage:      m.TaxPercentage,
		LineTotal:          m.LineTotal,
		Condition:          m.Condition,
		Reason:             m.Reason,
		RestockStatus:      m.RestockStatus,
		RestockWarehouseID: m.RestockWarehouseID,
		RestockedAt:        m.RestockedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SalesReturnItem entity.
func (m *SalesReturnItemModel) FromDomain(i *returns.SalesReturnItem) {
	m.ID = i.ID
	m.ReturnID = i.ReturnID
	m.ProductID = i.ProductID
	m.VariantID = i.VariantID
	m.ProductName = i.ProductName
	m.ProductCode = i.ProductCode
	m.Quantity = i.Quantity
	m.LooseQuantity = i.LooseQuantity
	m.PackSize = i.PackSize
	m.MaxQuantity = i.MaxQuantity
	m.UnitPrice = i.UnitPrice
	m.TaxPercentage = i.TaxPercentage
	m.LineTotal = i.LineTotal
	m.Condition = i.Condition
	m.Reason = i.Reason
	m.RestockStatus = i.RestockStatus
	m.RestockWarehouseID = i.RestockWarehouseID
	m.RestockedAt = i.RestockedAt
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}

// SalesReturnItemModelFromDomain creates a new persistence model from a domain SalesReturnItem entity.
func SalesReturnItemModelFromDomain(i *returns.SalesReturnItem) *SalesReturnItemModel {
	m := &SalesReturnItemModel{}
	m.FromDomain(i)
	return m
}

// ReturnApprovalModel is the persistence model for the append-only
// approval audit trail. Rows are inserted once and never updated.
type ReturnApprovalModel struct {
	ID             uuid.UUID              `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	ReturnID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	ReturnNumber   string                 `gorm:"type:varchar(50);not null"`
	Action         returns.ApprovalAction `gorm:"type:varchar(20);not null"`
	ActorID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	ActorName      string                 `gorm:"type:varchar(200)"`
	Comments       string                 `gorm:"type:varchar(1000)"`
	PreviousStatus returns.ReturnStatus   `gorm:"type:varchar(20);not null"`
	NewStatus      returns.ReturnStatus   `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ReturnApprovalModel) TableName() string {
	return "return_approvals"
}

// ToDomain converts the persistence model to a domain ReturnApproval entity.
func (m *ReturnApprovalModel) ToDomain() *returns.ReturnApproval {
	return &returns.ReturnApproval{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ReturnID:       m.ReturnID,
		ReturnNumber:   m.ReturnNumber,
		Action:         m.Action,
		ActorID:        m.ActorID,
		ActorName:      m.ActorName,
		Comments:       m.Comments,
		PreviousStatus: m.PreviousStatus,
		NewStatus:      m.NewStatus,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain ReturnApproval entity.
func (m *ReturnApprovalModel) FromDomain(a *returns.ReturnApproval) {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.ReturnID = a.ReturnID
	m.ReturnNumber = a.ReturnNumber
	m.Action = a.Action
	m.ActorID = a.ActorID
	m.ActorName = a.ActorName
	m.Comments = a.Comments
	m.PreviousStatus = a.PreviousStatus
	m.NewStatus = a.NewStatus
	m.CreatedAt = a.CreatedAt
}

// ReturnApprovalModelFromDomain creates a new persistence model from a domain ReturnApproval entity.
func ReturnApprovalModelFromDomain(a *returns.ReturnApproval) *ReturnApprovalModel {
	m := &ReturnApprovalModel{}
	m.FromDomain(a)
	return m
}

// ReturnSequenceModel tracks the per-tenant, per-year counter used to
// build return numbers. The counter only ever moves forward; gaps left
// by rolled-back transactions are acceptable.
type ReturnSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primary_key"`
	Year      int       `gorm:"primary_key;autoIncrement:false"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReturnSequenceModel) TableName() string {
	return "return_sequences"
}
