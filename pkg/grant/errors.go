package grant

import "errors"

// Domain errors for grant operations.
var (
	// ErrNotFound is returned when the grant ID is unknown.
	ErrNotFound = errors.New("grant.not_found")

	// ErrDuplicateActive is returned when an active grant already exists
	// for the (entity, subject) pair.
	ErrDuplicateActive = errors.New("grant.duplicate_active")

	// ErrInvalidRole is returned when granting a role outside the lattice.
	ErrInvalidRole = errors.New("grant.invalid_role")

	// ErrInvalidSubject is returned when the subject type is unknown.
	ErrInvalidSubject = errors.New("grant.invalid_subject")
)
