// Package group stores team-scoped user groups used as grant subjects.
//
// A group is an opaque subject: it can receive entity grants but never
// holds a project role of its own. Group membership is re-checked live at
// resolution time, so removing a user from a group strips every grant that
// named the group without touching the grants themselves.
package group
