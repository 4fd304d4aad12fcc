package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutErrorMatchesVendorHTTPError(t *testing.T) {
	err := fmt.Errorf("fetch orders: %w", &TimeoutError{
		VendorHTTPError: VendorHTTPError{Platform: "doppus", Method: "GET", Path: "/v1/orders"},
		After:           "15s",
		Err:             context.DeadlineExceeded,
	})

	var httpErr *VendorHTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 0, httpErr.StatusCode)
	assert.Equal(t, "doppus", httpErr.Platform)

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.True(t, timeoutErr.Timeout())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVendorHTTPError(t *testing.T) {
	err := &VendorHTTPError{Platform: "hotmart", Method: "POST", Path: "/webhooks", StatusCode: 401}
	assert.Equal(t, 401, err.HTTPStatus())
	assert.False(t, err.Timeout())
	assert.Contains(t, err.Error(), "401")
}

func TestTruncateBody(t *testing.T) {
	body := strings.Repeat("x", 600)
	assert.Len(t, TruncateBody([]byte(body)), 512)
	assert.Equal(t, "ok", TruncateBody([]byte(" ok \n")))
}

func TestNormalizationErrorMessage(t *testing.T) {
	err := NewNormalizationError("doppus", "customer", "missing")
	assert.Equal(t, "doppus: normalize: customer: missing", err.Error())
	err.Index = 2
	assert.Equal(t, "doppus: normalize item 2: customer: missing", err.Error())
}
