package dto

import "net/http"

// Wire-format error codes. Every code the API can return is listed
// here; clients switch on these rather than on HTTP status alone.
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation       = "ERR_VALIDATION"
	ErrCodeQuantityExceeded = "ERR_QUANTITY_EXCEEDED"
	ErrCodeDuplicateItem    = "ERR_DUPLICATE_ITEM"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeItemNotFound        = "ERR_ITEM_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// ErrCodeStateConflict means the lifecycle transition is not
	// allowed from the current status.
	ErrCodeStateConflict = "ERR_STATE_CONFLICT"
	// ErrCodeSettlementFailed means a refund side effect failed and
	// the transition was rolled back. Responses carrying it are
	// retryable.
	ErrCodeSettlementFailed = "ERR_SETTLEMENT_FAILED"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

var httpStatusByCode = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeQuantityExceeded: http.StatusBadRequest,
	ErrCodeDuplicateItem:    http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeItemNotFound: http.StatusNotFound,

	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeStateConflict:       http.StatusConflict,

	ErrCodeSettlementFailed: http.StatusUnprocessableEntity,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus picks the status for a wire-format code, defaulting
// to 500 for anything unrecognized.
func GetHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Domain errors carry bare codes like STATE_CONFLICT; the API surface
// prefixes them.
var wireCodeByDomain = map[string]string{
	"VALIDATION":              ErrCodeValidation,
	"QUANTITY_EXCEEDED":       ErrCodeQuantityExceeded,
	"DUPLICATE_ITEM":          ErrCodeDuplicateItem,
	"STATE_CONFLICT":          ErrCodeStateConflict,
	"SETTLEMENT_FAILED":       ErrCodeSettlementFailed,
	"NOT_FOUND":               ErrCodeNotFound,
	"ITEM_NOT_FOUND":          ErrCodeItemNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"CONCURRENT_MODIFICATION": ErrCodeConcurrencyConflict,
	"UNAUTHORIZED":            ErrCodeUnauthorized,
	"FORBIDDEN":               ErrCodeForbidden,
}

// NormalizeErrorCode maps a bare domain error code to its wire form.
// Codes already in wire form, and unknown codes, pass through.
func NormalizeErrorCode(code string) string {
	if wire, ok := wireCodeByDomain[code]; ok {
		return wire
	}
	return code
}
