package sentinel

import "errors"

// Sentinel dependency errors. Stores and caches return these (optionally
// wrapped) so the service translates them into domain errors exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
