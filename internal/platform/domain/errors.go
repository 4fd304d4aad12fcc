package domain

import (
	"fmt"
	"strings"
)

const maxErrorBody = 512

// VendorHTTPError reports a vendor call that did not produce a 2xx response.
type VendorHTTPError struct {
	Platform   string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *VendorHTTPError) Error() string {
	return fmt.Sprintf("%s %s %s: vendor responded %d", e.Platform, e.Method, e.Path, e.StatusCode)
}

func (e *VendorHTTPError) HTTPStatus() int { return e.StatusCode }

// Timeout reports whether the call was abandoned at its deadline.
func (e *VendorHTTPError) Timeout() bool { return false }

// TruncateBody keeps vendor response bodies small enough to log.
func TruncateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody]
	}
	return text
}

// TimeoutError is a VendorHTTPError raised when a call exceeds its deadline.
type TimeoutError struct {
	VendorHTTPError
	After string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s %s: vendor call timed out after %s", e.Platform, e.Method, e.Path, e.After)
}

func (e *TimeoutError) Timeout() bool { return true }

func (e *TimeoutError) Unwrap() error { return e.Err }

// As lets errors.As(err, **VendorHTTPError) match a timeout.
func (e *TimeoutError) As(target any) bool {
	if t, ok := target.(**VendorHTTPError); ok {
		*t = &e.VendorHTTPError
		return true
	}
	return false
}

// NormalizationError reports a vendor payload missing a required field.
type NormalizationError struct {
	Platform string
	Field    string
	Reason   string
	Index    int
}

func (e *NormalizationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: normalize item %d: %s: %s", e.Platform, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: normalize: %s: %s", e.Platform, e.Field, e.Reason)
}

func (e *NormalizationError) NormalizationField() string { return e.Field }

func NewNormalizationError(platform, field, reason string) *NormalizationError {
	return &NormalizationError{Platform: platform, Field: field, Reason: reason, Index: -1}
}
