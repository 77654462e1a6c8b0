package pg

import "errors"

var (
	// ErrFailedToParseConfig is returned for an invalid connection string.
	ErrFailedToParseConfig = errors.New("pg.failed_to_parse_config")

	// ErrNotReady is returned when the database did not become reachable
	// within the configured retry budget.
	ErrNotReady = errors.New("pg.not_ready")

	// ErrFailedToMigrate wraps schema migration failures.
	ErrFailedToMigrate = errors.New("pg.failed_to_migrate")
)
