package role

import "errors"

// ErrInvalidRole is returned when a string or stored value does not name a
// member of the lattice.
var ErrInvalidRole = errors.New("role.invalid_role")
