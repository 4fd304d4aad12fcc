package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
	platformdomain "github.com/smallbiznis/paybridge/internal/platform/domain"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	webhookdomain "github.com/smallbiznis/paybridge/internal/platform/webhook/domain"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var normErr *platformdomain.NormalizationError
	if errors.As(err, &normErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "normalization_error",
			Message: "platform payload could not be normalized",
			Errors: []ValidationError{
				{
					Field:   normErr.Field,
					Code:    "invalid_" + normErr.Field,
					Message: normErr.Reason,
				},
			},
		}
	}

	var timeoutErr *platformdomain.TimeoutError
	if errors.As(err, &timeoutErr) {
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "vendor_timeout",
			Message: fmt.Sprintf("%s did not respond in time", timeoutErr.Platform),
		}
	}

	var vendorErr *platformdomain.VendorHTTPError
	if errors.As(err, &vendorErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "vendor_error",
			Message: fmt.Sprintf("%s responded %d", vendorErr.Platform, vendorErr.StatusCode),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, webhookdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, syncer.ErrIntegrationDisabled):
		return http.StatusConflict, errorPayload{
			Type:    "integration_disabled",
			Message: "integration is disabled",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, txdomain.ErrAlreadyExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, webhookdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger with the mapped error type and
// a stable code.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	if payload.Type == "internal_error" {
		return payload.Type, "internal_error"
	}
	return payload.Type, validationErrorCode(err)
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, integrationdomain.ErrInvalidPlatform),
		errors.Is(err, integrationdomain.ErrInvalidUser),
		errors.Is(err, integrationdomain.ErrEmptyPatch),
		errors.Is(err, txdomain.ErrInvalidTransaction),
		errors.Is(err, txdomain.ErrInvalidKey),
		errors.Is(err, txdomain.ErrInvalidStatus),
		errors.Is(err, txdomain.ErrInvalidDateRange),
		errors.Is(err, txdomain.ErrEmptyPatch),
		errors.Is(err, platformdomain.ErrMissingCredentials),
		errors.Is(err, platformdomain.ErrInvalidPayload),
		errors.Is(err, syncer.ErrWebhookURLRequired):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, integrationdomain.ErrNotFound),
		errors.Is(err, txdomain.ErrNotFound),
		errors.Is(err, platformdomain.ErrPlatformNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

var validationCodes = []error{
	ErrInvalidRequest,
	integrationdomain.ErrInvalidPlatform,
	integrationdomain.ErrInvalidUser,
	integrationdomain.ErrEmptyPatch,
	txdomain.ErrInvalidTransaction,
	txdomain.ErrInvalidKey,
	txdomain.ErrInvalidStatus,
	txdomain.ErrInvalidDateRange,
	txdomain.ErrEmptyPatch,
	platformdomain.ErrMissingCredentials,
	platformdomain.ErrInvalidPayload,
	syncer.ErrWebhookURLRequired,
	webhookdomain.ErrInvalidSignature,
	webhookdomain.ErrRateLimited,
	syncer.ErrIntegrationDisabled,
	integrationdomain.ErrNotFound,
	txdomain.ErrNotFound,
	platformdomain.ErrPlatformNotFound,
}

// validationErrorCode unwraps to the sentinel so wrapped errors keep a
// stable code.
func validationErrorCode(err error) string {
	for _, sentinel := range validationCodes {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "empty_config_patch", "empty_transaction_patch":
		return "body"
	case "missing_credentials":
		return "config"
	case "invalid_webhook_payload":
		return "payload"
	case "webhook_url_required":
		return "url"
	case "invalid_transaction_key":
		return "id"
	case "invalid_transaction_status":
		return "status"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_platform":
		return "unsupported platform"
	case "invalid_user":
		return "user id is required"
	case "empty_config_patch", "empty_transaction_patch":
		return "nothing to update"
	case "missing_credentials":
		return "platform credentials are not configured"
	case "invalid_webhook_payload":
		return "payload is not a valid event"
	case "webhook_url_required":
		return "a valid absolute webhook url is required"
	case "invalid_date_range":
		return "to must not be before from"
	default:
		return "invalid value"
	}
}
