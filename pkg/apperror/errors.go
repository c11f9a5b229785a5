package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err (or anything it wraps) is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Error codes surfaced in logs and responses.
const (
	CodeMalformedPayload        = "WHK_001"
	CodeVerificationFailed      = "WHK_002"
	CodeOrderNotFound           = "WHK_003"
	CodeUnsupportedResourceType = "WHK_004"
	CodeCommitConflict          = "WHK_005"
	CodeMissingCheckoutState    = "CHK_001"
	CodeInternal                = "SYS_001"
)

// ---- Webhook processing (WHK) ----

func ErrMalformedPayload(err error) *AppError {
	return Wrap(CodeMalformedPayload, "Malformed webhook payload", http.StatusBadRequest, err)
}

func ErrVerificationFailed(err error) *AppError {
	return Wrap(CodeVerificationFailed, "Webhook signature could not be verified", http.StatusUnauthorized, err)
}

func ErrOrderNotFound() *AppError {
	return New(CodeOrderNotFound, "Order not found", http.StatusNotFound)
}

func ErrUnsupportedResourceType(resourceType string) *AppError {
	return New(CodeUnsupportedResourceType, fmt.Sprintf("Cannot process resource type %q", resourceType), http.StatusUnprocessableEntity)
}

func ErrCommitConflict(attempts int) *AppError {
	return New(CodeCommitConflict, fmt.Sprintf("Order changed concurrently, gave up after %d attempts", attempts), http.StatusConflict)
}

// ---- Checkout (CHK) ----

func ErrMissingCheckoutState(field string) *AppError {
	return New(CodeMissingCheckoutState, fmt.Sprintf("Missing checkout state: PayPalCheckoutState.%s", field), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap(CodeInternal, "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a 400 validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

// NotFound returns a generic 404 for non-webhook lookups.
func NotFound(entity string) *AppError {
	return New("REQ_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}
