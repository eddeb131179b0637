package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Retryable indicates the caller may retry the same request after
	// the underlying condition clears (e.g. a settlement side effect
	// timed out and the transition was rolled back).
	Retryable bool `json:"retryable,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error for malformed or
// missing input. Never retryable.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: "VALIDATION", Message: message}
}

// NewQuantityExceededError creates an error for a return quantity that
// exceeds the quantity originally sold.
func NewQuantityExceededError(message string) *DomainError {
	return &DomainError{Code: "QUANTITY_EXCEEDED", Message: message}
}

// NewStateConflictError creates an error for an illegal lifecycle
// transition. It carries both the current and the requested state so
// the client can refresh and retry.
func NewStateConflictError(current, requested string) *DomainError {
	return &DomainError{
		Code:    "STATE_CONFLICT",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, requested),
	}
}

// NewSettlementFailureError creates a retryable error for a failed
// refund settlement side effect (points credit or restock). The whole
// transition is rolled back when this is returned.
func NewSettlementFailureError(message string) *DomainError {
	return &DomainError{Code: "SETTLEMENT_FAILED", Message: message, Retryable: true}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
)
