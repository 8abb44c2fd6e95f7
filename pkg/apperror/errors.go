package apperror

import (
	"errors"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	ErrCode string       `json:"error_code,omitempty"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Machine-readable error codes for the invoice domain. The HTTP layer maps
// these onto client-facing responses; tests assert on them.
const (
	CodeInvalidItem         = "invalid_item"
	CodeInvalidPayment      = "invalid_payment"
	CodeInvalidStatus       = "invalid_status"
	CodeInvalidTransition   = "invalid_transition"
	CodeInvoiceLocked       = "invoice_locked"
	CodeInvoiceNotDeletable = "invoice_not_deletable"
	CodeNotFound            = "not_found"
	CodeConcurrencyConflict = "concurrency_conflict"
)

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, ErrCode: CodeNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrTokenExpired       = &AppError{Code: http.StatusUnauthorized, Message: "Token has expired"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		ErrCode: CodeNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewInvalidItemError reports a malformed invoice line item.
func NewInvalidItemError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrCode: CodeInvalidItem, Message: message}
}

// NewInvalidPaymentError reports a payment with a non-positive amount or an
// unrecognized method.
func NewInvalidPaymentError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrCode: CodeInvalidPayment, Message: message}
}

// NewInvalidStatusError reports an unrecognized target status.
func NewInvalidStatusError(status string) *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrCode: CodeInvalidStatus, Message: "Invalid status: " + status}
}

// NewInvalidTransitionError reports a status change disallowed by the
// transition table, naming the violated guard.
func NewInvalidTransitionError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrCode: CodeInvalidTransition, Message: message}
}

// NewInvoiceLockedError reports a mutation attempted on a paid invoice.
func NewInvoiceLockedError() *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrCode: CodeInvoiceLocked, Message: "Cannot update paid invoice"}
}

// NewInvoiceNotDeletableError reports a delete attempt outside draft or
// cancelled, or with recorded payments.
func NewInvoiceNotDeletableError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrCode: CodeInvoiceNotDeletable, Message: message}
}

// NewConcurrencyConflictError reports an optimistic-lock version mismatch.
func NewConcurrencyConflictError() *AppError {
	return &AppError{Code: http.StatusConflict, ErrCode: CodeConcurrencyConflict, Message: "Invoice was modified concurrently, retry with fresh state"}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsCode reports whether err is an AppError carrying the given error code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ErrCode == code
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
