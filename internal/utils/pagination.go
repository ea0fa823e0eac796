// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page normalizes 1-based paging input and returns the row offset.
// page < 1 becomes 1; size <= 0 becomes def; size above maxSize is clamped
// when maxSize > 0.
func Page(page, size, def, maxSize int) (p, s, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return page, size, (page - 1) * size
}
