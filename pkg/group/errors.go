package group

import "errors"

// Domain errors for group operations.
var (
	// ErrNotFound is returned when the group does not exist.
	ErrNotFound = errors.New("group.not_found")

	// ErrArchived is returned when mutating membership of an archived group.
	ErrArchived = errors.New("group.archived")

	// ErrEmptyName is returned when creating a group without a name.
	ErrEmptyName = errors.New("group.empty_name")
)
