package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode identifies a failure class across the API surface.
type ErrorCode int

// Error codes, grouped by module.
const (
	// Generic (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidInput     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrAlreadyExists    ErrorCode = 1003
	ErrPermissionDenied ErrorCode = 1004
	ErrTimeout          ErrorCode = 1005

	// Game (2000-2999)
	ErrInvalidAction          ErrorCode = 2000
	ErrNoResourcesToSell      ErrorCode = 2001
	ErrNoPlayerState          ErrorCode = 2002
	ErrWorldUnavailable       ErrorCode = 2003
	ErrWorldNotFound          ErrorCode = 2004
	ErrConcurrentModification ErrorCode = 2005

	// Storage (5000-5999)
	ErrStorageUnavailable ErrorCode = 5000
	ErrTransaction        ErrorCode = 5001

	// Security (7000-7999)
	ErrAuthentication ErrorCode = 7000
	ErrAuthorization  ErrorCode = 7001
	ErrTokenExpired   ErrorCode = 7002
	ErrTokenInvalid   ErrorCode = 7003
	ErrRateLimited    ErrorCode = 7004
	ErrAccountLocked  ErrorCode = 7005
)

var errorMessages = map[ErrorCode]string{
	ErrUnknown:          "unknown error",
	ErrInvalidInput:     "invalid input",
	ErrNotFound:         "resource not found",
	ErrAlreadyExists:    "resource already exists",
	ErrPermissionDenied: "permission denied",
	ErrTimeout:          "operation timed out",

	ErrInvalidAction:          "invalid action",
	ErrNoResourcesToSell:      "no resources to sell",
	ErrNoPlayerState:          "player state not found",
	ErrWorldUnavailable:       "world is not available",
	ErrWorldNotFound:          "world not found",
	ErrConcurrentModification: "state was modified concurrently",

	ErrStorageUnavailable: "storage unavailable",
	ErrTransaction:        "transaction failed",

	ErrAuthentication: "authentication failed",
	ErrAuthorization:  "authorization failed",
	ErrTokenExpired:   "token has expired",
	ErrTokenInvalid:   "invalid token",
	ErrRateLimited:    "too many requests",
	ErrAccountLocked:  "account temporarily locked",
}

// AppError is a coded error carrying an optional cause and detail string.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches detail text.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// Sanitized returns a copy safe for external responses: server-side failure
// details are stripped, client-facing validation messages stay.
func (e *AppError) Sanitized() *AppError {
	if e.HTTPStatus() < 500 {
		return e
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
	}
}

// New creates a coded error.
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	return err
}

// Newf creates a coded error with formatted details.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code. An existing AppError keeps its original code.
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr := New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// GetCode extracts the code from err, ErrUnknown for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// HTTPStatus maps the error code to an HTTP status.
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidInput || e.Code == ErrAlreadyExists:
		return 400
	case e.Code == ErrInvalidAction || e.Code == ErrNoResourcesToSell || e.Code == ErrWorldUnavailable:
		return 400
	case e.Code == ErrNotFound || e.Code == ErrNoPlayerState || e.Code == ErrWorldNotFound:
		return 404
	case e.Code == ErrPermissionDenied || e.Code == ErrAuthorization:
		return 403
	case e.Code == ErrTimeout:
		return 408
	case e.Code == ErrConcurrentModification:
		return 409
	case e.Code >= ErrAuthentication && e.Code <= ErrTokenInvalid:
		return 401
	case e.Code == ErrRateLimited || e.Code == ErrAccountLocked:
		return 429
	case e.Code >= 5000 && e.Code <= 5999:
		return 503
	default:
		return 500
	}
}

// NeverMutates reports whether the failure is guaranteed to have left
// player state untouched. All domain failures are detected before any
// write; the optimistic-lock failure aborts the write atomically.
func NeverMutates(err error) bool {
	switch GetCode(err) {
	case ErrInvalidInput, ErrRateLimited, ErrNoPlayerState, ErrWorldUnavailable,
		ErrNoResourcesToSell, ErrInvalidAction, ErrConcurrentModification:
		return true
	default:
		return false
	}
}

// ErrorResponse is the JSON error envelope returned by the API.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
