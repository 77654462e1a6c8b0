package resolver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/creator"
	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/grant"
	"github.com/SharedMindsApp/accesskit/pkg/group"
	"github.com/SharedMindsApp/accesskit/pkg/membership"
)

// DefaultCacheTTL bounds staleness for entries that miss an invalidation
// (e.g. a failed Redis purge); every mutation path invalidates eagerly so
// the TTL is a backstop, not the coherence mechanism.
const DefaultCacheTTL = time.Minute

// CachedService is a read-through cache in front of a Service.
//
// Coherence comes from the stores: every mutating operation fires its
// mutation hook after commit and before returning, and the invalidator
// adapters below purge synchronously. A resolution that starts after a
// mutation returns therefore recomputes from the stores
// (write-then-invalidate ordering). Failed resolutions are never cached.
type CachedService struct {
	svc   *Service
	cache Cache
	ttl   time.Duration
}

// CachedOption configures a CachedService.
type CachedOption func(*CachedService)

// WithTTL overrides the backstop TTL for cached entries.
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *CachedService) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewCached wraps svc with the given cache.
func NewCached(svc *Service, cache Cache, opts ...CachedOption) *CachedService {
	c := &CachedService{svc: svc, cache: cache, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the cached resolution for (user, entity) or computes and
// stores it.
func (c *CachedService) Resolve(ctx context.Context, userID uuid.UUID, ref entity.Ref) (Resolution, error) {
	projectID, err := c.svc.owningProject(ctx, ref)
	if err != nil {
		return Resolution{}, err
	}

	key := Key{ProjectID: projectID, UserID: userID, Entity: ref}
	if res, ok := c.cache.Get(ctx, key); ok {
		return res, nil
	}

	res, err := c.svc.resolveInProject(ctx, userID, ref, projectID)
	if err != nil {
		return Resolution{}, err
	}
	c.cache.Set(ctx, key, res, c.ttl)
	return res, nil
}

// Close releases the underlying cache.
func (c *CachedService) Close() error {
	return c.cache.Close()
}

// MembershipInvalidator adapts a Cache into a membership mutation hook:
// any membership change purges the whole project, since every entity under
// it inherits the gate and the ceiling from that membership.
func MembershipInvalidator(c Cache) membership.MutationHook {
	return func(ctx context.Context, projectID, userID uuid.UUID) {
		c.DeleteProject(ctx, projectID)
	}
}

// GrantInvalidator adapts a Cache into a grant mutation hook.
func GrantInvalidator(c Cache) grant.MutationHook {
	return func(ctx context.Context, ref entity.Ref) {
		c.DeleteEntity(ctx, ref)
	}
}

// CreatorInvalidator adapts a Cache into a creator rights mutation hook.
func CreatorInvalidator(c Cache) creator.MutationHook {
	return func(ctx context.Context, ref entity.Ref) {
		c.DeleteEntity(ctx, ref)
	}
}

// GroupInvalidator adapts a Cache into a group mutation hook. A group
// change can affect any entity holding a grant to that group, and the
// stores keep no reverse index from groups to entities, so the purge is
// coarse.
func GroupInvalidator(c Cache) group.MutationHook {
	return func(ctx context.Context, groupID uuid.UUID) {
		c.DeleteAll(ctx)
	}
}
