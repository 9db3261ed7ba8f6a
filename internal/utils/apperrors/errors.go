package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "VALIDATION"
	ErrorTypePersistence     ErrorType = "PERSISTENCE"
	ErrorTypeResponder       ErrorType = "RESPONDER"
	ErrorTypeRateLimited     ErrorType = "RATE_LIMIT_EXCEEDED"
	ErrorTypeProtectedBranch ErrorType = "PROTECTED_BRANCH"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypePartialCreate   ErrorType = "PARTIAL_CREATE"
	ErrorTypeUnauthorized    ErrorType = "UNAUTHORIZED"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeInternal        ErrorType = "INTERNAL"
)

// Layer represents the application layer where the error occurred
type Layer string

const (
	LayerRepository     Layer = "repository"
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerRoute          Layer = "route"
	LayerInfrastructure Layer = "infrastructure"
)

type requestIDContextKey struct{}

// WithRequestID stores the request ID for later error enrichment.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return requestID
	}
	return ""
}

// AppError carries the error taxonomy plus request context through the layers.
type AppError struct {
	Type      ErrorType
	Message   string
	Err       error
	RequestID string
	Layer     Layer
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Layer, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Layer, e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) GetErrorType() ErrorType {
	return e.Type
}

func (e *AppError) GetRequestID() string {
	return e.RequestID
}

// New creates a typed AppError at the given layer.
func New(ctx context.Context, layer Layer, errorType ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:      errorType,
		Message:   message,
		Err:       err,
		RequestID: requestIDFromContext(ctx),
		Layer:     layer,
		Timestamp: time.Now().UTC(),
	}
}

// Wrap wraps an error with layer context, preserving an existing AppError's type.
func Wrap(ctx context.Context, layer Layer, err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return New(ctx, layer, appErr.Type, fmt.Sprintf("%s: %s", message, appErr.Message), appErr)
	}
	return New(ctx, layer, ErrorTypeInternal, message, err)
}

// TypeOf extracts the error type, defaulting to INTERNAL for untyped errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries the given error type.
func IsType(err error, errorType ErrorType) bool {
	return TypeOf(err) == errorType
}

// HTTPStatus maps error types to HTTP status codes
func HTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation, ErrorTypeProtectedBranch:
		return http.StatusBadRequest
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeResponder, ErrorTypePersistence, ErrorTypePartialCreate, ErrorTypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
