package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types
var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrBadRequest           = errors.New("bad request")
	ErrConflict             = errors.New("conflict")
	ErrInternal             = errors.New("internal error")
	ErrValidation           = errors.New("validation error")
	ErrInvalidIdentity      = errors.New("invalid identity")
	ErrUnknownPlan          = errors.New("unknown plan")
	ErrSubscriptionRequired = errors.New("subscription required")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not found error
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		Code:       "BAD_REQUEST",
		HTTPStatus: http.StatusBadRequest,
	}
}

// MissingFields creates a validation error listing the absent required fields
func MissingFields(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    "required fields missing",
		Code:       "MISSING_FIELDS",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// InvalidIdentity creates an error for a malformed patient identity string
func InvalidIdentity(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidIdentity,
		Message:    message,
		Code:       "INVALID_IDENTITY",
		HTTPStatus: http.StatusBadRequest,
	}
}

// UnknownPlan creates an error for a plan id outside the catalog
func UnknownPlan(planID string) *AppError {
	return &AppError{
		Err:        ErrUnknownPlan,
		Message:    fmt.Sprintf("unknown plan: %s", planID),
		Code:       "UNKNOWN_PLAN",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{"plan_id": planID},
	}
}

// SubscriptionRequired creates an error for callers without an active entitlement
func SubscriptionRequired() *AppError {
	return &AppError{
		Err:        ErrSubscriptionRequired,
		Message:    "an active subscription is required",
		Code:       "SUBSCRIPTION_REQUIRED",
		HTTPStatus: http.StatusForbidden,
	}
}

// OrderNotFound creates an error for an unknown commerce order
func OrderNotFound(orderID string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    "commerce order not found",
		Code:       "ORDER_NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"order": orderID},
	}
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

// StoreUnavailable creates an error for an unreachable backing store
func StoreUnavailable(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "storage unavailable",
		Code:       "STORE_UNAVAILABLE",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// Internal creates an internal error
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// IsCode reports whether err carries the given application error code
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}
