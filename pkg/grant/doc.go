// Package grant stores explicit entity-level role assignments.
//
// A grant binds one subject (a user or a group) to a role on a single
// entity. Grants only ever add capability up to the subject's project role
// ceiling; the cap itself is the resolver's job, this package just keeps
// the records straight: one active grant per (entity, subject), revocation
// as a soft state change with audit timestamps, and idempotent revokes so
// retries never surface spurious conflicts.
package grant
