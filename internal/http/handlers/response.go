// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints: the
// ErrorResponse envelope, fail for explicit errors, failService for mapping
// service errors to statuses, and ok/noContent for success responses.
//
// Service errors map as follows: validation 400, quota 429, not found 404,
// anything else 500. Internal error text is never sent to the client; it is
// attached to the Gin context so the access log records it.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mindcare-backend/internal/http/middleware"
	"github.com/tbourn/go-mindcare-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"conversation not found"`
}

// QuotaExceededResponse is the 429 body for a used-up daily allowance.
// Message carries the localized denial reason.
type QuotaExceededResponse struct {
	ErrorResponse
	Remaining int `json:"remaining" example:"0"`
	Limit     int `json:"limit" example:"10"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failService maps err from a service call onto the error envelope.
// internalCode is used for unexpected failures.
func failService(c *gin.Context, err error, internalCode string) {
	var qe *services.QuotaError
	switch {
	case errors.As(err, &qe):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, QuotaExceededResponse{
			ErrorResponse: ErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeQuotaExceeded,
				Message:   qe.Reason,
			},
			Remaining: 0,
			Limit:     qe.Limit,
		})
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeEmptyMessage, "message is empty")
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, "message too long")
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeUserNotFound, "user not found")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, internalCode, "internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
