// Package handlers implements the contact REST endpoints and the HTML list page.
//
// Every failure is written through fail/failValidation so clients always get
// one of two envelopes:
//
//	{"request_id": "...", "code": "not_found", "error": "Contact not found"}
//	{"request_id": "...", "code": "validation_failed", "errors": ["Name is required"]}
//
// 5xx responses are logged with the request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contacts-backend/internal/http/middleware"
)

// ErrorResponse is the envelope for a single failure.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Error string `json:"error" example:"Contact not found"`
}

// ValidationErrorResponse lists every problem found in a request body.
type ValidationErrorResponse struct {
	RequestID string   `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string   `json:"code" example:"validation_failed"`
	Errors    []string `json:"errors" example:"Name is required,Phone is required"`
}

func requestID(c *gin.Context) string {
	return c.Writer.Header().Get("X-Request-ID")
}

// fail aborts with an ErrorResponse.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Error:     msg,
	})
}

// Fail is fail for callers outside this package (router fallbacks).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failValidation aborts with 400 and the validation messages.
func failValidation(c *gin.Context, errs []string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorResponse{
		RequestID: requestID(c),
		Code:      ErrCodeValidation,
		Errors:    errs,
	})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
