// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelopes and the single place where
// service errors are translated into HTTP results:
//
//   - validation.Errors         → 400 validation_failed + per-field list
//   - services.ErrRecordNotFound → 404 not_found
//   - anything else             → 500 internal_error, generic message; the
//     real error is logged with the request-scoped logger and never sent
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "message": "validation failed",
//	  "errors": [
//	    {"field": "date", "message": "date cannot be later than the current date"}
//	  ]
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pet-weight-backend/internal/http/middleware"
	"github.com/tbourn/pet-weight-backend/internal/services"
	"github.com/tbourn/pet-weight-backend/internal/validation"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"record not found"`
}

// ValidationErrorResponse extends ErrorResponse with one entry per violated
// field.
type ValidationErrorResponse struct {
	ErrorResponse
	Errors []validation.FieldError `json:"errors"`
}

// MessageResponse is a bare confirmation body.
type MessageResponse struct {
	Message string `json:"message" example:"record deleted"`
}

const genericFailure = "something went wrong, please try again later"

// fail aborts the request with a structured error. Statuses >= 500 are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// respondError maps a service error to its HTTP response.
func respondError(c *gin.Context, err error) {
	var ve validation.Errors
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorResponse{
			ErrorResponse: ErrorResponse{
				RequestID: requestID(c),
				Code:      ErrCodeValidation,
				Message:   "validation failed",
			},
			Errors: ve,
		})
	case errors.Is(err, services.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("request failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, genericFailure)
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func requestID(c *gin.Context) string {
	return c.Writer.Header().Get(middleware.HeaderRequestID)
}
