package config

import "errors"

var (
	// ErrNilPointer is returned when Load is called with a nil target.
	ErrNilPointer = errors.New("config.nil_pointer")

	// ErrParsingConfig wraps environment parsing failures.
	ErrParsingConfig = errors.New("config.parsing_failed")
)
