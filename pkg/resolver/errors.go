package resolver

import "errors"

// Domain errors for permission resolution.
var (
	// ErrEntityNotFound is returned when the entity is unknown to the
	// project directory. Propagated as-is; never treated as a denial nor
	// as an implicit allow.
	ErrEntityNotFound = errors.New("resolver.entity_not_found")

	// ErrUnavailable wraps any store failure that prevented a definitive
	// resolution. Callers must fail closed: an unavailable resolution
	// confers no capability.
	ErrUnavailable = errors.New("resolver.unavailable")
)
