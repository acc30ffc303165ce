package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized,
		ErrForbidden, ErrInternal, ErrConflict, ErrServiceUnavail,
		ErrPaymentFailed,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: fmt.Errorf("db connection lost")}
	assert.Equal(t, "INTERNAL_ERROR: something broke: db connection lost", appErr.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "user not found"}
	assert.Equal(t, "NOT_FOUND: user not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "abc-123"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.com"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"invalid input", InvalidInput("price must be positive"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("missing token"), "UNAUTHORIZED", http.StatusForbidden, ErrUnauthorized},
		{"forbidden", Forbidden("seller role required"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"conflict", Conflict("order already delivered"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"payment failed", PaymentFailed("charge not captured"), "PAYMENT_FAILED", http.StatusPaymentRequired, ErrPaymentFailed},
		{"unavailable", ServiceUnavailable("provider down", fmt.Errorf("circuit open")), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := fmt.Errorf("pq: relation does not exist")
	err := Internal(cause)

	assert.Equal(t, "an internal error occurred", err.Message)
	assert.NotContains(t, err.Message, "relation")
	assert.True(t, errors.Is(err, cause))
}

func TestNotFound_MessageNamesResource(t *testing.T) {
	err := NotFound("product", "abc-123")
	assert.Contains(t, err.Message, "product")
	assert.Contains(t, err.Message, "abc-123")
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load cart item")
	assert.Equal(t, "load cart item: resource not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", Forbidden("no"), http.StatusForbidden},
		{"wrapped app error", fmt.Errorf("handler: %w", NotFound("blog", "1")), http.StatusNotFound},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel conflict", fmt.Errorf("x: %w", ErrConflict), http.StatusConflict},
		{"sentinel already exists", ErrAlreadyExists, http.StatusConflict},
		{"sentinel invalid", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel unauthorized", ErrUnauthorized, http.StatusForbidden},
		{"sentinel forbidden", ErrForbidden, http.StatusForbidden},
		{"sentinel payment", ErrPaymentFailed, http.StatusPaymentRequired},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
