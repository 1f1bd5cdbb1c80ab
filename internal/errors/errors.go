package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// AppError represents an application-specific error
type AppError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Cause     error  `json:"-"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code, message string, cause error) *AppError {
	_, file, line, _ := runtime.Caller(1)
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		File:    file,
		Line:    line,
	}
}

// WithOperation adds operation context to the error
func (e *AppError) WithOperation(operation string) *AppError {
	e.Operation = operation
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Reason codes returned to callers. Policy codes describe why a request
// was refused; ErrCodeServerError is the single generic code for any
// internal fault and never exposes detail to the caller.
const (
	ErrCodeMissingEngagementID      = "MISSING_ENGAGEMENT_ID"
	ErrCodeMissingRequiredFields    = "MISSING_REQUIRED_FIELDS"
	ErrCodeInvalidRating            = "INVALID_RATING"
	ErrCodeEngagementNotFound       = "ENGAGEMENT_NOT_FOUND"
	ErrCodeProviderNotAssigned      = "PROVIDER_NOT_ASSIGNED"
	ErrCodeServiceNotCompleted      = "SERVICE_NOT_COMPLETED"
	ErrCodeEngagementNotCompleted   = "ENGAGEMENT_NOT_COMPLETED"
	ErrCodeReviewAlreadyExists      = "REVIEW_ALREADY_EXISTS"
	ErrCodeInvalidServiceProviderID = "INVALID_SERVICE_PROVIDER_ID"
	ErrCodeServerError              = "SERVER_ERROR"
)

// Common error constructors
func MissingRequiredFields(message string) *AppError {
	return NewAppError(ErrCodeMissingRequiredFields, message, nil)
}

func InvalidRating(message string) *AppError {
	return NewAppError(ErrCodeInvalidRating, message, nil)
}

func EngagementNotFound(message string) *AppError {
	return NewAppError(ErrCodeEngagementNotFound, message, nil)
}

func ProviderNotAssigned(message string) *AppError {
	return NewAppError(ErrCodeProviderNotAssigned, message, nil)
}

func ServiceNotCompleted(message string) *AppError {
	return NewAppError(ErrCodeServiceNotCompleted, message, nil)
}

func EngagementNotCompleted(message string) *AppError {
	return NewAppError(ErrCodeEngagementNotCompleted, message, nil)
}

func ReviewAlreadyExists(message string) *AppError {
	return NewAppError(ErrCodeReviewAlreadyExists, message, nil)
}

func ServerError(message string, cause error) *AppError {
	return NewAppError(ErrCodeServerError, message, cause)
}

// ReasonCode extracts the reason code from an error. Any error that is
// not an AppError is reported as SERVER_ERROR.
func ReasonCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeServerError
}

// IsPolicy reports whether err is a client-policy rejection rather than
// a system failure.
func IsPolicy(err error) bool {
	return ReasonCode(err) != ErrCodeServerError
}
