// Package service implements the application logic between the HTTP
// handlers and the ledger engine / storage.
package service

import "errors"

var (
	// ErrInvalidInput is returned when a request fails validation before
	// reaching storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the acting user may not perform the
	// operation on the target record.
	ErrForbidden = errors.New("not allowed")
)
