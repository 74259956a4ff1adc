// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across storage/api/session layers.
var (
	// ErrNotFound indicates the requested entity or stored value does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the server rejected the credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoSession indicates an operation that requires a logged-in user.
	ErrNoSession = errors.New("no session")

	// ErrBusy indicates the operation was skipped because an equivalent one
	// is still in flight (single-flight latch).
	ErrBusy = errors.New("operation already in flight")
)
