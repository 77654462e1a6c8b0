// Package resolver computes the effective permission of a user on an
// entity by combining every applicable authority source into one decision.
//
// Three sources feed a resolution: the user's project membership role, the
// entity creator's implicit edit right, and explicit entity grants (direct
// or via group membership, re-checked live). They combine under two hard
// rules:
//
//   - Project membership is an absolute gate. No membership means role
//     None, and no grant or creator right is even consulted.
//   - Project role is the ceiling. Entity-level sources can raise the
//     candidate role up to, never past, what the membership role allows.
//
// A project Owner short-circuits before any entity-level lookup, so Owner
// access survives grant and creator store outages. Every other store
// failure surfaces as ErrUnavailable and must be treated as no capability
// (fail closed).
//
// Wiring the cache: the cache is created first so the stores can purge it
// synchronously from their mutation hooks.
//
//
//	cache := resolver.NewMemoryCache()
//	memberships := membership.NewMemoryStore(
//	    membership.WithMutationHook(resolver.MembershipInvalidator(cache)))
//	grants := grant.NewMemoryStore(
//	    grant.WithMutationHook(resolver.GrantInvalidator(cache)))
//	creators := creator.NewMemoryStore(
//	    creator.WithMutationHook(resolver.CreatorInvalidator(cache)))
//	groups := group.NewMemoryStore(
//	    group.WithMutationHook(resolver.GroupInvalidator(cache)))
//
//	svc := resolver.New(directory, memberships, groups, grants, creators)
//	cached := resolver.NewCached(svc, cache)
//
// Hooks fire after the store write commits and before the mutating call
// returns, so a resolution that starts after a revoke returns never sees
// the revoked grant.
package resolver
