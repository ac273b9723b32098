// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a positive base-10 primary key from a path segment.
// It returns ok=false for empty, signed, zero, non-numeric, or
// out-of-range input.
//
// Example:
//
//	id, ok := utils.ParseID("42")  // 42, true
//	_, ok = utils.ParseID("abc")   // 0, false
//	_, ok = utils.ParseID("0")     // 0, false
func ParseID(s string) (uint, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
