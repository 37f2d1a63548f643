package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := New(ErrorTypeHTTPStatus, 404, "Unexpected status code 404")
	assert.Equal(t, "http_status error (code 404): Unexpected status code 404", err.Error())
}

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		code     int
		wantType ErrorType
	}{
		{429, ErrorTypeRateLimit},
		{404, ErrorTypeHTTPStatus},
		{500, ErrorTypeHTTPStatus},
		{201, ErrorTypeHTTPStatus},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := NewStatusError(tt.code)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.code, err.Code)
			assert.Contains(t, err.Message, fmt.Sprint(tt.code))
		})
	}
}

func TestNewProtocolError(t *testing.T) {
	body := []byte(`{"success":false}`)
	err := NewProtocolError(body, nil)

	assert.Equal(t, ErrorTypeProtocol, err.Type)
	assert.Equal(t, 0, err.Code)
	assert.Equal(t, string(body), err.Body)
	assert.Contains(t, err.Error(), "Unsuccessful api response.")
	assert.Contains(t, err.Error(), `{"success":false}`)
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrorTypeNetwork, 0, cause, "network error")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Message, "connection refused")

	wrapped := fmt.Errorf("get sitemap: %w", err)
	apiErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, err, apiErr)
}

func TestHelpers(t *testing.T) {
	notFound := fmt.Errorf("outer: %w", NewStatusError(404))
	limited := NewStatusError(429)
	plain := stderrors.New("plain")

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(limited))
	assert.False(t, IsNotFound(plain))

	assert.True(t, IsRateLimited(limited))
	assert.False(t, IsRateLimited(notFound))

	assert.Equal(t, 404, StatusCode(notFound))
	assert.Equal(t, 0, StatusCode(plain))

	assert.True(t, IsType(limited, ErrorTypeRateLimit))
	assert.False(t, IsType(plain, ErrorTypeRateLimit))

	_, ok := As(plain)
	assert.False(t, ok)
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	for _, et := range []ErrorType{ErrorTypeNetwork, ErrorTypeHTTPStatus, ErrorTypeProtocol, ErrorTypeRequest, ErrorTypeIO} {
		assert.False(t, IsRetryable(et), et)
	}

	assert.True(t, IsRetryableStatusCode(429))
	for _, code := range []int{0, 200, 404, 500, 502, 503} {
		assert.False(t, IsRetryableStatusCode(code), code)
	}
}
