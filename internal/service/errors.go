package service

import "errors"

// Error taxonomy for vault operations. Handlers map these to HTTP statuses;
// wrapped messages stay safe to show to callers (no storage-key layout, no
// backend internals).
var (
	// ErrValidation marks bad or missing input (empty archive, identical
	// rename target, malformed parameters).
	ErrValidation = errors.New("validation failed")
	// ErrNotAuthorized means the access predicate rejected the principal.
	ErrNotAuthorized = errors.New("not authorized for this file")
	// ErrNotFound covers unknown file IDs, versions and usernames.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a storage key is already occupied and overwrite is
	// disallowed.
	ErrConflict = errors.New("storage key conflict")
	// ErrStore wraps blob backend failures; these trigger compensating
	// cleanup where the protocol defines one.
	ErrStore = errors.New("storage backend failure")
)
