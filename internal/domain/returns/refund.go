package returns

// RefundType represents how a return's monetary value goes back to the
// customer.
type RefundType string

const (
	RefundTypeCash         RefundType = "CASH"
	RefundTypeCard         RefundType = "CARD"
	RefundTypeUPI          RefundType = "UPI"
	RefundTypeBankTransfer RefundType = "BANK_TRANSFER"
	RefundTypePoints       RefundType = "POINTS" // loyalty points credit
)

// IsValid checks if the refund type is a valid RefundType
func (t RefundType) IsValid() bool {
	switch t {
	case RefundTypeCash, RefundTypeCard, RefundTypeUPI, RefundTypeBankTransfer, RefundTypePoints:
		return true
	}
	return false
}

// IsMonetary returns true for refund types settled directly against the
// return record (no ledger interaction).
func (t RefundType) IsMonetary() bool {
	return t == RefundTypeCash || t == RefundTypeCard || t == RefundTypeUPI || t == RefundTypeBankTransfer
}

// String returns the string representation of RefundType
func (t RefundType) String() string {
	return string(t)
}

// RefundStatus tracks the settlement state of a return's refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusCompleted RefundStatus = "COMPLETED"
)

// String returns the string representation of RefundStatus
func (s RefundStatus) String() string {
	return string(s)
}

// ItemCondition describes the physical state of a returned item
type ItemCondition string

const (
	ItemConditionGood      ItemCondition = "GOOD"
	ItemConditionDamaged   ItemCondition = "DAMAGED"
	ItemConditionExpired   ItemCondition = "EXPIRED"
	ItemConditionDefective ItemCondition = "DEFECTIVE"
)

// IsValid checks if the condition is a valid ItemCondition
func (c ItemCondition) IsValid() bool {
	switch c {
	case ItemConditionGood, ItemConditionDamaged, ItemConditionExpired, ItemConditionDefective:
		return true
	}
	return false
}

// Restockable returns true if items in this condition go back into
// sellable stock. Anything else is routed to a scrap/RMA bucket.
func (c ItemCondition) Restockable() bool {
	return c == ItemConditionGood
}

// String returns the string representation of ItemCondition
func (c ItemCondition) String() string {
	return string(c)
}

// RestockStatus tracks per-item restock bookkeeping
type RestockStatus string

const (
	RestockStatusPending   RestockStatus = "PENDING"
	RestockStatusRequested RestockStatus = "REQUESTED" // restock emitted to the stock subsystem
	RestockStatusScrapped  RestockStatus = "SCRAPPED"  // damaged or expired, written off
	RestockStatusRMA       RestockStatus = "RMA"       // defective, returned to vendor
)

// String returns the string representation of RestockStatus
func (s RestockStatus) String() string {
	return string(s)
}
