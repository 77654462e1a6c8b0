// Package redis provides the Redis client plumbing for the shared
// resolution cache backend.
package redis
