// Package httpapi exposes the permission engine over HTTP for hosts that
// consume it as a service rather than in process.
//
// The surface is small: one resolution endpoint plus grant and
// creator-right management. Management endpoints are gated by resolving
// the caller's role on the entity's owning project, and only Owners pass,
// matching the in-process contract. Authentication is the host's job; the
// verified caller ID arrives in the X-User-ID header.
package httpapi
