package handler

import "github.com/retailbill/backend/internal/interfaces/http/dto"

// APIResponse is the envelope swag renders for documented endpoints.
// Runtime responses are built by the dto package; this type only gives
// the generator a concrete shape for the data field.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the documented shape of failed requests.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
