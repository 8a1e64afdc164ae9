package util

import "errors"

// Sentinel errors for package util.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Lookup errors
	ErrNotFound = errors.New("entry not found")

	// Allocation errors
	ErrEmptyName = errors.New("name is empty")
)
