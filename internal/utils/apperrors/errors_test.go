package apperrors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesType(t *testing.T) {
	ctx := context.Background()
	inner := New(ctx, LayerInfrastructure, ErrorTypeRateLimited, "rate limited", nil)

	wrapped := Wrap(ctx, LayerDomain, inner, "responder failed")
	assert.Equal(t, ErrorTypeRateLimited, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeRateLimited))
	assert.ErrorIs(t, wrapped, inner)
}

func TestWrapUntypedError(t *testing.T) {
	wrapped := Wrap(context.Background(), LayerRepository, errors.New("connection reset"), "query failed")
	assert.Equal(t, ErrorTypeInternal, TypeOf(wrapped))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(context.Background(), LayerDomain, nil, "nothing"))
}

func TestRequestIDPropagation(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	err := New(ctx, LayerHandler, ErrorTypeValidation, "bad input", nil)
	assert.Equal(t, "req-123", err.GetRequestID())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeProtectedBranch, http.StatusBadRequest},
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeConflict, http.StatusConflict},
		{ErrorTypeRateLimited, http.StatusTooManyRequests},
		{ErrorTypeResponder, http.StatusInternalServerError},
		{ErrorTypePersistence, http.StatusInternalServerError},
		{ErrorTypePartialCreate, http.StatusInternalServerError},
		{ErrorType("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.errorType), string(tt.errorType))
	}
}
