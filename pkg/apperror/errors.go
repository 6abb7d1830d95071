package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its message so callers can
// match with errors.Is even when the message carries request details.
type Kind string

const (
	KindNotFound               Kind = "NOT_FOUND"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindBadRequest             Kind = "BAD_REQUEST"
	KindInternal               Kind = "INTERNAL"
	KindConflict               Kind = "CONFLICT"
	KindValidation             Kind = "VALIDATION"
	KindInvalidToken           Kind = "INVALID_TOKEN"
	KindInsufficientStock      Kind = "INSUFFICIENT_STOCK"
	KindInsufficientFunds      Kind = "INSUFFICIENT_FUNDS"
	KindInsufficientPoints     Kind = "INSUFFICIENT_POINTS"
	KindAccountNotFound        Kind = "ACCOUNT_NOT_FOUND"
	KindCustomerNotEligible    Kind = "CUSTOMER_NOT_ELIGIBLE"
	KindAuthenticationRequired Kind = "AUTHENTICATION_REQUIRED"
	KindConcurrencyConflict    Kind = "CONCURRENCY_CONFLICT"
	KindOrderVoided            Kind = "ORDER_VOIDED"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
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

// Is reports whether target is an AppError of the same kind.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind == "" || e.Kind == "" {
		return e == t
	}
	return e.Kind == t.Kind
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: "Resource already exists"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Kind: KindInvalidToken, Message: "Invalid token"}
)

// Ledger errors
var (
	ErrInsufficientStock      = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInsufficientStock, Message: "Insufficient stock"}
	ErrInsufficientFunds      = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInsufficientFunds, Message: "Insufficient funds"}
	ErrInsufficientPoints     = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInsufficientPoints, Message: "Insufficient points"}
	ErrAccountNotFound        = &AppError{Code: http.StatusNotFound, Kind: KindAccountNotFound, Message: "Account not found"}
	ErrCustomerNotEligible    = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindCustomerNotEligible, Message: "Customer is not eligible for rewards"}
	ErrAuthenticationRequired = &AppError{Code: http.StatusUnauthorized, Kind: KindAuthenticationRequired, Message: "Authentication required"}
	ErrConcurrencyConflict    = &AppError{Code: http.StatusConflict, Kind: KindConcurrencyConflict, Message: "The record was modified by another operation, please retry"}
	ErrOrderVoided            = &AppError{Code: http.StatusConflict, Kind: KindOrderVoided, Message: "Voided orders cannot be modified"}
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
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewInsufficientStockError reports the stock shortfall for a product.
func NewInsufficientStockError(productName string, available, requested int) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", productName, available, requested),
	}
}

// NewInsufficientFundsError reports the balance shortfall for an account.
func NewInsufficientFundsError(accountName, available, requested string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindInsufficientFunds,
		Message: fmt.Sprintf("Insufficient funds in %s: available %s, requested %s", accountName, available, requested),
	}
}

// NewAccountNotFoundError reports a payment method without a resolvable account.
func NewAccountNotFoundError(method string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindAccountNotFound,
		Message: "No account found for payment method " + method,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}
