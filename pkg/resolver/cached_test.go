package resolver_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharedMindsApp/accesskit/pkg/creator"
	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/grant"
	"github.com/SharedMindsApp/accesskit/pkg/group"
	"github.com/SharedMindsApp/accesskit/pkg/membership"
	"github.com/SharedMindsApp/accesskit/pkg/resolver"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

// countingMemberships wraps a store and counts gate lookups, which happen
// exactly once per uncached resolution.
type countingMemberships struct {
	membership.Store
	lookups atomic.Int64
}

func (c *countingMemberships) GetActiveRole(ctx context.Context, projectID, userID uuid.UUID) (role.Role, bool, error) {
	c.lookups.Add(1)
	return c.Store.GetActiveRole(ctx, projectID, userID)
}

type cachedFixture struct {
	cache       resolver.Cache
	memberships *countingMemberships
	groups      *group.MemoryStore
	grants      *grant.MemoryStore
	creators    *creator.MemoryStore
	svc         *resolver.CachedService

	projectID uuid.UUID
	track     entity.Ref
}

func newCachedFixture(t *testing.T) *cachedFixture {
	t.Helper()

	cache := resolver.NewMemoryCache()
	t.Cleanup(func() { _ = cache.Close() })

	f := &cachedFixture{
		cache:     cache,
		projectID: uuid.New(),
		track:     entity.NewRef(entity.TypeTrack, uuid.New()),
	}
	f.memberships = &countingMemberships{
		Store: membership.NewMemoryStore(membership.WithMutationHook(resolver.MembershipInvalidator(cache))),
	}
	f.groups = group.NewMemoryStore(group.WithMutationHook(resolver.GroupInvalidator(cache)))
	f.grants = grant.NewMemoryStore(grant.WithMutationHook(resolver.GrantInvalidator(cache)))
	f.creators = creator.NewMemoryStore(creator.WithMutationHook(resolver.CreatorInvalidator(cache)))

	directory := resolver.NewMemoryDirectory()
	directory.Register(f.track, f.projectID)

	svc := resolver.New(directory, f.memberships, f.groups, f.grants, f.creators)
	f.svc = resolver.NewCached(svc, cache)
	return f
}

func TestCachedService_ReadThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCachedFixture(t)
	member := uuid.New()
	_, err := f.memberships.Create(ctx, f.projectID, member, role.Editor)
	require.NoError(t, err)
	f.memberships.lookups.Store(0)

	res, err := f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)
	assert.EqualValues(t, 1, f.memberships.lookups.Load())

	// Second call is served from cache.
	res, err = f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)
	assert.EqualValues(t, 1, f.memberships.lookups.Load())
}

func TestCachedService_GrantInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCachedFixture(t)
	member := uuid.New()
	_, err := f.memberships.Create(ctx, f.projectID, member, role.Editor)
	require.NoError(t, err)

	res, err := f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)

	// Granting purges the entity's entries; the next read sees the grant.
	grantID, err := f.grants.Grant(ctx, f.track, grant.UserSubject(member), role.Editor, uuid.New())
	require.NoError(t, err)

	res, err = f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Editor, res.Role)

	// Revoking purges again.
	require.NoError(t, f.grants.Revoke(ctx, grantID, uuid.New()))

	res, err = f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)
}

func TestCachedService_MembershipInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCachedFixture(t)
	member := uuid.New()
	_, err := f.memberships.Create(ctx, f.projectID, member, role.Owner)
	require.NoError(t, err)
	_, err = f.memberships.Create(ctx, f.projectID, uuid.New(), role.Owner)
	require.NoError(t, err)

	res, err := f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.True(t, res.CanManage)

	// Demotion purges the whole project; the ceiling drops immediately.
	require.NoError(t, f.memberships.SetRole(ctx, f.projectID, member, role.Viewer))

	res, err = f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)
	assert.False(t, res.CanManage)

	// Archival drops the gate.
	require.NoError(t, f.memberships.Archive(ctx, f.projectID, member))

	res, err = f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.None, res.Role)
}

func TestCachedService_CreatorInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCachedFixture(t)
	member, admin := uuid.New(), uuid.New()
	_, err := f.memberships.Create(ctx, f.projectID, member, role.Editor)
	require.NoError(t, err)
	require.NoError(t, f.creators.EnsureCreated(ctx, f.track, member))

	res, err := f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Editor, res.Role)

	require.NoError(t, f.creators.Revoke(ctx, f.track, member, admin))

	res, err = f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)
}

func TestCachedService_GroupInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCachedFixture(t)
	member := uuid.New()
	_, err := f.memberships.Create(ctx, f.projectID, member, role.Editor)
	require.NoError(t, err)

	g, err := f.groups.CreateGroup(ctx, uuid.New(), "reviewers")
	require.NoError(t, err)
	require.NoError(t, f.groups.AddMember(ctx, g.ID, member))
	_, err = f.grants.Grant(ctx, f.track, grant.GroupSubject(g.ID), role.Editor, uuid.New())
	require.NoError(t, err)

	res, err := f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Editor, res.Role)

	// Group membership changes purge everything, so the cached Editor
	// entry cannot outlive the removal.
	require.NoError(t, f.groups.RemoveMember(ctx, g.ID, member))

	res, err = f.svc.Resolve(ctx, member, f.track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)
}

func TestCachedService_ErrorsNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache := resolver.NewMemoryCache()
	t.Cleanup(func() { _ = cache.Close() })

	projectID := uuid.New()
	track := entity.NewRef(entity.TypeTrack, uuid.New())
	directory := resolver.NewMemoryDirectory()
	directory.Register(track, projectID)

	memberships := membership.NewMemoryStore()
	member := uuid.New()
	_, err := memberships.Create(ctx, projectID, member, role.Editor)
	require.NoError(t, err)

	// First pass with a failing grant store must not poison the cache.
	failing := resolver.NewCached(
		resolver.New(directory, memberships, group.NewMemoryStore(), failingGrants{}, creator.NewMemoryStore()),
		cache)
	_, err = failing.Resolve(ctx, member, track)
	require.ErrorIs(t, err, resolver.ErrUnavailable)

	healthy := resolver.NewCached(
		resolver.New(directory, memberships, group.NewMemoryStore(), grant.NewMemoryStore(), creator.NewMemoryStore()),
		cache)
	res, err := healthy.Resolve(ctx, member, track)
	require.NoError(t, err)
	assert.Equal(t, role.Viewer, res.Role)
}

func TestCachedService_NoOpCacheAlwaysRecomputes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	projectID := uuid.New()
	track := entity.NewRef(entity.TypeTrack, uuid.New())
	directory := resolver.NewMemoryDirectory()
	directory.Register(track, projectID)

	memberships := &countingMemberships{Store: membership.NewMemoryStore()}
	member := uuid.New()
	_, err := memberships.Create(ctx, projectID, member, role.Viewer)
	require.NoError(t, err)

	svc := resolver.NewCached(
		resolver.New(directory, memberships, group.NewMemoryStore(), grant.NewMemoryStore(), creator.NewMemoryStore()),
		resolver.NoOpCache{})

	for i := 0; i < 3; i++ {
		_, err := svc.Resolve(ctx, member, track)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, memberships.lookups.Load())
}
