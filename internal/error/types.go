package error

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeTimeout      ErrorType = "timeout_error"
	ErrorTypeLLM          ErrorType = "llm_error"
	ErrorTypeRateLimit    ErrorType = "rate_limit_error"
	ErrorTypeInternal     ErrorType = "internal_error"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized_error"
	ErrorTypeConflict     ErrorType = "conflict_error"
	ErrorTypeUnavailable  ErrorType = "unavailable_error"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeTimeout:      http.StatusGatewayTimeout,
	ErrorTypeLLM:          http.StatusBadGateway,
	ErrorTypeRateLimit:    http.StatusTooManyRequests,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeUnavailable:  http.StatusServiceUnavailable,
}

// AppError carries a client-safe message and its HTTP status; Err holds the cause for logs
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// ------------------------------------------------------------------------------------------------------
func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ------------------------------------------------------------------------------------------------------
// New builds an AppError of the given type. Unknown types map to 500.
func New(t ErrorType, message string, err error) *AppError {
	status, ok := statusByType[t]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Type: t, Message: message, StatusCode: status, Err: err}
}

func NewValidationError(message string, err error) *AppError {
	return New(ErrorTypeValidation, message, err)
}

func NewTimeoutError(message string, err error) *AppError {
	return New(ErrorTypeTimeout, message, err)
}

// NewLLMError reports a failure of the upstream language model
func NewLLMError(message string, err error) *AppError {
	return New(ErrorTypeLLM, message, err)
}

func NewRateLimitError(message string, err error) *AppError {
	return New(ErrorTypeRateLimit, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return New(ErrorTypeInternal, message, err)
}

func NewUnauthorizedError(message string, err error) *AppError {
	return New(ErrorTypeUnauthorized, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return New(ErrorTypeNotFound, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return New(ErrorTypeConflict, message, err)
}

// NewUnavailableError reports a backend that is not configured or not reachable
func NewUnavailableError(message string, err error) *AppError {
	return New(ErrorTypeUnavailable, message, err)
}

// ------------------------------------------------------------------------------------------------------
// TypeOf returns the type of the first AppError in err's chain, or internal
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// ------------------------------------------------------------------------------------------------------
// GetHTTPStatusCode maps err to a response status. Bare context deadlines become 504.
func GetHTTPStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
}

// ------------------------------------------------------------------------------------------------------
// NewErrorResponse builds the body for err. Only AppError messages reach clients; anything
// else is reported as a generic internal error.
func NewErrorResponse(err error) ErrorResponse {
	detail := ErrorDetail{
		Type:    ErrorTypeInternal,
		Message: "internal server error",
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		detail.Type = appErr.Type
		detail.Message = appErr.Message
	}
	detail.Code = string(detail.Type)

	return ErrorResponse{Error: detail}
}
