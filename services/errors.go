package services

import "errors"

// Engine error taxonomy. Controllers map these to HTTP codes; the engine
// itself never speaks status codes. Storage errors are always wrapped with
// the entity and key involved, never swallowed.
var (
	// ErrInvalidInput marks requests rejected at the engine boundary
	// (non-positive XP, malformed date, unknown achievement id).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing resource, distinct from a bad request.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a concurrency conflict that survived the storage
	// layer's single retry. Every engine operation is idempotent-by-key or
	// an atomic increment, so callers may safely retry the whole call.
	ErrConflict = errors.New("conflict")
)
