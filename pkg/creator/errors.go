package creator

import "errors"

// ErrNotFound is returned when no creator right record exists for the
// (entity, creator) pair.
var ErrNotFound = errors.New("creator.not_found")
