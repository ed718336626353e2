// Package store persists issued certificates.
package store

import "marriage-registry/internal/sentinel"

var (
	// ErrNotFound is returned when no certificate matches.
	ErrNotFound = sentinel.ErrNotFound
	// ErrDuplicate is returned when a certificate with the same canonical
	// number already exists.
	ErrDuplicate = sentinel.ErrConflict
	// ErrAlreadyRevoked is returned when a revocation targets a certificate
	// that is no longer active.
	ErrAlreadyRevoked = sentinel.ErrInvalidState
)
