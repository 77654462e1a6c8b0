package membership

import "errors"

// Domain errors for membership operations.
var (
	// ErrNotFound is returned when no active membership exists for the pair.
	ErrNotFound = errors.New("membership.not_found")

	// ErrDuplicateActive is returned when creating a membership would
	// violate the one-active-row-per-pair invariant.
	ErrDuplicateActive = errors.New("membership.duplicate_active")

	// ErrLastOwner is returned when archiving would leave the project
	// without any active Owner.
	ErrLastOwner = errors.New("membership.last_owner")

	// ErrInvalidRole is returned when a mutation names a role outside the
	// lattice.
	ErrInvalidRole = errors.New("membership.invalid_role")
)
