// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP statuses. For example, ErrForbidden indicates that
// the current user is not authorized to act on a resource owned by
// someone else, while ErrConflict signals that an operation cannot
// proceed due to dependent records (e.g. deleting a class that still
// has active reservations).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a class that still has active reservations. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrVersionConflict is returned when a conditional update carries
// a stale version number. The caller should re-read the entity and
// retry; handlers translate this into HTTP 409.
var ErrVersionConflict = errors.New("version conflict")
