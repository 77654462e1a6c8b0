// Package entity defines typed references to permission-bearing objects.
//
// A Ref is the (type, id) pair that every store and the resolver key on.
// The package is a leaf: it carries no behavior beyond identity so that
// stores, the resolver, and host applications can share references without
// importing each other.
package entity
