// Package pg provides the PostgreSQL connection pool and schema migration
// plumbing shared by the Postgres-backed stores.
package pg
