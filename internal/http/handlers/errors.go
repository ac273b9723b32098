// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase, snake_case strings that clients can branch on;
// every error envelope carries one of them next to the HTTP status.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "record not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// ErrCodeValidation accompanies a per-field error list.
	ErrCodeValidation = "validation_failed"
)
