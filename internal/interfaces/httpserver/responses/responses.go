package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tangent-server/internal/utils/apperrors"
)

// ErrorResponse is the JSON error body returned by every endpoint.
type ErrorResponse struct {
	Code          string `json:"code"`
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		statusCode := apperrors.HTTPStatus(appErr.GetErrorType())

		errResp := ErrorResponse{
			Code:          string(appErr.GetErrorType()),
			Error:         message,
			Message:       appErr.Message,
			ErrorInstance: appErr,
			RequestID:     appErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-typed errors
	errResp := ErrorResponse{
		Code:          string(apperrors.ErrorTypeInternal),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType apperrors.ErrorType, message string) {
	ctx := reqCtx.Request.Context()
	err := apperrors.New(ctx, apperrors.LayerRoute, errorType, message, nil)

	errResp := ErrorResponse{
		Code:          string(errorType),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	}

	reqCtx.AbortWithStatusJSON(apperrors.HTTPStatus(errorType), errResp)
}

// HandleErrorWithStatus forces a specific status code regardless of error type.
func HandleErrorWithStatus(reqCtx *gin.Context, statusCode int, err error, message string) {
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(statusCode, errResp)
}
