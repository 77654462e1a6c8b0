// Package role defines the authorization role lattice and its capability
// mapping.
//
// The lattice is a fixed total order: None < Viewer < Commenter < Editor <
// Owner. A higher role implies every capability of a lower one, so
// comparisons are plain integer comparisons and the package is pure: no
// side effects, no I/O, no errors outside of parsing.
//
// Usage:
//
//	if member.Role.Implies(role.Editor) {
//	    // allowed to edit
//	}
//
//	effective := role.Min(candidate, projectRole) // cap by project ceiling
//	caps := effective.Capabilities()
package role
