// Package errors provides custom error types for the stockbank API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError carrying the same code, so that
// errors.Is(err, ErrInvalidStatus) holds for wrapped or re-messaged copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// From returns the AppError carried by err, or ErrInternalServer when err is
// not one.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrInvalidAPIKey      = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrAdminNotConfigured = &AppError{Code: "ADMIN_NOT_CONFIGURED", Message: "Admin endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
	ErrRateLimited        = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Account errors.
var (
	ErrAccountNotFound     = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient account balance", StatusCode: http.StatusBadRequest}
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Notification errors.
var (
	ErrNotificationNotFound = &AppError{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found", StatusCode: http.StatusNotFound}
)

// Stock errors.
var (
	ErrStockNotFound   = &AppError{Code: "STOCK_NOT_FOUND", Message: "Stock not found", StatusCode: http.StatusNotFound}
	ErrDisabledStock   = &AppError{Code: "DISABLED_STOCK", Message: "Stock is disabled", StatusCode: http.StatusConflict}
	ErrStockSoldOut    = &AppError{Code: "STOCK_SOLD_OUT", Message: "No remaining stock inventory", StatusCode: http.StatusConflict}
	ErrInvalidQuantity = &AppError{Code: "INVALID_QUANTITY", Message: "Quantity must not be negative", StatusCode: http.StatusBadRequest}
)

// Stock order errors.
var (
	ErrStockOrderNotFound = &AppError{Code: "STOCK_ORDER_NOT_FOUND", Message: "Stock order not found", StatusCode: http.StatusNotFound}
	ErrInvalidStatus      = &AppError{Code: "INVALID_STATUS", Message: "Stock order is not pending", StatusCode: http.StatusConflict}
	ErrInvalidAmount      = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must not be negative", StatusCode: http.StatusBadRequest}
	ErrInvalidOwner       = &AppError{Code: "INVALID_OWNER", Message: "Invalid owner", StatusCode: http.StatusBadRequest}
	ErrInvalidStock       = &AppError{Code: "INVALID_STOCK", Message: "Invalid stock", StatusCode: http.StatusBadRequest}
	ErrInvalidAccount     = &AppError{Code: "INVALID_ACCOUNT", Message: "Invalid account", StatusCode: http.StatusBadRequest}
	ErrInvalidOrderType   = &AppError{Code: "INVALID_ORDER_TYPE", Message: "Order type must be BUY or SELL", StatusCode: http.StatusBadRequest}
	ErrStockMismatch      = &AppError{Code: "STOCK_MISMATCH", Message: "Stock orders reference different stocks", StatusCode: http.StatusConflict}
	ErrOrderTypeMismatch  = &AppError{Code: "ORDER_TYPE_MISMATCH", Message: "Stock orders must be of opposite types", StatusCode: http.StatusConflict}
)

// Financial security errors.
var (
	ErrFinancialSecurityNotFound = &AppError{Code: "FINANCIAL_SECURITY_NOT_FOUND", Message: "Financial security not found", StatusCode: http.StatusNotFound}
)
