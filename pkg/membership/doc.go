// Package membership stores project-level role assignments.
//
// A membership binds (project, user) to a role from the lattice. Rows are
// soft-archived rather than deleted, and at most one row per pair may be
// active at a time. The Postgres store enforces this with a partial unique
// index on the active subset, the in-memory store under its mutex.
//
// Project membership is the absolute gate of the permission engine: a user
// without an active membership resolves to no capability regardless of any
// entity-level grants, and the membership role is the ceiling that entity
// grants can never push effective access above.
//
// Archiving the final active Owner of a project is refused with
// ErrLastOwner so a project can never become unmanageable.
package membership
