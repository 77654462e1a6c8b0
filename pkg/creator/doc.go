// Package creator stores the implicit edit right every entity creator
// starts with.
//
// The right behaves as an Editor-equivalent grant while active. Project
// owners can revoke it and later restore it; restoration reactivates the
// same record with the same implied role. Records are never deleted, so
// the revoke/restore history stays available for audit.
package creator
