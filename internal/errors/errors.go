package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation           ErrorType = "validation"
	ErrorTypeDetectionUnavailable ErrorType = "detection_unavailable"
	ErrorTypeInvalidDetection     ErrorType = "invalid_detection"
	ErrorTypeVideoDecodeFailed    ErrorType = "video_decode_failed"
	ErrorTypeActionFailed         ErrorType = "action_failed"
	ErrorTypeStorage              ErrorType = "storage"
	ErrorTypeNetwork              ErrorType = "network"
	ErrorTypeTimeout              ErrorType = "timeout"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeInternal             ErrorType = "internal"
)

// ActionFailureReason identifies which side effect of a policy action
// could not complete.
type ActionFailureReason string

const (
	CopyFailed   ActionFailureReason = "copy_failed"
	DeleteFailed ActionFailureReason = "delete_failed"
	TagFailed    ActionFailureReason = "tag_failed"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType           `json:"type"`
	Message    string              `json:"message"`
	Reason     ActionFailureReason `json:"reason,omitempty"`
	StatusCode int                 `json:"status_code"`
	Cause      error               `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewDetectionUnavailableError indicates the detection capability could not
// be invoked. Fatal for the current content item; the core never retries it.
func NewDetectionUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDetectionUnavailable,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewInvalidDetectionError marks a single malformed detection. Such
// detections are dropped from results, never raised as fatal.
func NewInvalidDetectionError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidDetection,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewVideoDecodeError indicates an unreadable or corrupt video source.
// Fatal for the current content item.
func NewVideoDecodeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeVideoDecodeFailed,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewActionFailedError indicates a required policy side effect could not
// complete; Reason says which one.
func NewActionFailedError(reason ActionFailureReason, message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeActionFailed,
		Message:    message,
		Reason:     reason,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewStorageError creates a new storage error
func NewStorageError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStorage,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
