package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

type rawPayloader interface {
	RawPayload() string
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{apperr.ErrNotAuthenticated, http.StatusUnauthorized, "unauthorized"},
	{apperr.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, "unsupported_format"},
	{apperr.ErrEmptyDocument, http.StatusUnprocessableEntity, "empty_document"},
	{apperr.ErrExtractionFailure, http.StatusUnprocessableEntity, "extraction_failed"},
	{apperr.ErrSchemaViolation, http.StatusBadGateway, "schema_violation"},
	{apperr.ErrModelCallFailure, http.StatusBadGateway, "model_call_failed"},
	{apperr.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	{apperr.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrLimitReached, http.StatusPaymentRequired, "limit_reached"},
	{apperr.ErrCheckoutNotConfigured, http.StatusNotImplemented, "checkout_not_configured"},
	{apperr.ErrConfiguration, http.StatusInternalServerError, "configuration_error"},
}

// FromError maps a service error onto the standard error response.
// Unrecognized errors become a 500 without leaking their text.
func FromError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		var details interface{}
		var raw rawPayloader
		if errors.As(err, &raw) {
			details = gin.H{"raw": raw.RawPayload()}
		}
		c.Set("error", err.Error())
		Error(c, m.status, m.code, err.Error(), details)
		return
	}
	c.Set("error", err.Error())
	Error(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
}
