package redis

import "errors"

var (
	// ErrFailedToParseURL is returned for an invalid connection URL.
	ErrFailedToParseURL = errors.New("redis.failed_to_parse_url")

	// ErrNotReady is returned when the server did not become reachable
	// within the configured retry budget.
	ErrNotReady = errors.New("redis.not_ready")
)
