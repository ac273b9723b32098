// Package services defines the business logic for pet weight records.
// This file centralizes common service-level error values so that they can
// be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Validation failures are not sentinels; they are
// returned as validation.Errors and detected with errors.As.
package services

import "errors"

// ErrRecordNotFound indicates that no record exists for the requested id.
// An id of zero is reported the same way.
var ErrRecordNotFound = errors.New("record not found")
