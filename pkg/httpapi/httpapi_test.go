package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharedMindsApp/accesskit/pkg/creator"
	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/events"
	"github.com/SharedMindsApp/accesskit/pkg/grant"
	"github.com/SharedMindsApp/accesskit/pkg/group"
	"github.com/SharedMindsApp/accesskit/pkg/httpapi"
	"github.com/SharedMindsApp/accesskit/pkg/membership"
	"github.com/SharedMindsApp/accesskit/pkg/resolver"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

type apiFixture struct {
	router   http.Handler
	grants   *grant.MemoryStore
	creators *creator.MemoryStore
	bus      *events.Bus

	projectID uuid.UUID
	track     entity.Ref
	owner     uuid.UUID
	editor    uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()

	f := &apiFixture{
		grants:    grant.NewMemoryStore(),
		creators:  creator.NewMemoryStore(),
		bus:       events.NewBus(8),
		projectID: uuid.New(),
		track:     entity.NewRef(entity.TypeTrack, uuid.New()),
		owner:     uuid.New(),
		editor:    uuid.New(),
	}
	t.Cleanup(f.bus.Close)

	directory := resolver.NewMemoryDirectory()
	directory.Register(f.track, f.projectID)

	memberships := membership.NewMemoryStore()
	_, err := memberships.Create(ctx, f.projectID, f.owner, role.Owner)
	require.NoError(t, err)
	_, err = memberships.Create(ctx, f.projectID, f.editor, role.Editor)
	require.NoError(t, err)

	svc := resolver.New(directory, memberships, group.NewMemoryStore(), f.grants, f.creators)
	f.router = httpapi.Router(httpapi.Options{
		Resolver: svc,
		Grants:   f.grants,
		Creators: f.creators,
		Bus:      f.bus,
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, asUser uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if asUser != uuid.Nil {
		req.Header.Set(httpapi.UserIDHeader, asUser.String())
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func grantsPath(ref entity.Ref) string {
	return fmt.Sprintf("/entities/%s/%s/grants", ref.Type, ref.ID)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	body := map[string]any{"entity_type": "track", "entity_id": f.track.ID}
	rec := f.do(t, http.MethodPost, "/resolve", f.editor, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var res resolver.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, role.Viewer, res.Role)
	assert.True(t, res.CanView)
	assert.False(t, res.CanEdit)
	assert.Equal(t, f.projectID, res.ProjectID)
}

func TestResolve_AuthAndValidation(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	body := map[string]any{"entity_type": "track", "entity_id": f.track.ID}

	rec := f.do(t, http.MethodPost, "/resolve", uuid.Nil, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/resolve", bytes.NewBufferString("{}"))
	req.Header.Set(httpapi.UserIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/resolve", bytes.NewBufferString("{not json"))
	req.Header.Set(httpapi.UserIDHeader, f.editor.String())
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolve_UnknownEntity(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	body := map[string]any{"entity_type": "track", "entity_id": uuid.New()}
	rec := f.do(t, http.MethodPost, "/resolve", f.editor, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolve_FailClosed(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	router := httpapi.Router(httpapi.Options{
		Resolver: failingResolver{},
		Grants:   f.grants,
		Creators: f.creators,
	})

	body, err := json.Marshal(map[string]any{"entity_type": "track", "entity_id": f.track.ID})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/resolve", bytes.NewReader(body))
	req.Header.Set(httpapi.UserIDHeader, f.editor.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateGrant(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	body := map[string]any{"subject_type": "user", "subject_id": f.editor, "role": "editor"}
	rec := f.do(t, http.MethodPost, grantsPath(f.track), f.owner, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		GrantID uuid.UUID `json:"grant_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.GrantID)

	// Same subject again: conflict.
	rec = f.do(t, http.MethodPost, grantsPath(f.track), f.owner, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateGrant_OwnerGating(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	body := map[string]any{"subject_type": "user", "subject_id": uuid.New(), "role": "viewer"}

	// An Editor can see the entity but cannot manage grants.
	rec := f.do(t, http.MethodPost, grantsPath(f.track), f.editor, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A non-member cannot learn the entity exists.
	rec = f.do(t, http.MethodPost, grantsPath(f.track), uuid.New(), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGrant_InvalidSubject(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	body := map[string]any{"subject_type": "robot", "subject_id": uuid.New(), "role": "viewer"}
	rec := f.do(t, http.MethodPost, grantsPath(f.track), f.owner, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListGrants(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodGet, grantsPath(f.track), f.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	_, err := f.grants.Grant(ctx, f.track, grant.UserSubject(f.editor), role.Editor, f.owner)
	require.NoError(t, err)

	rec = f.do(t, http.MethodGet, grantsPath(f.track), f.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var grants []grant.Grant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grants))
	require.Len(t, grants, 1)
	assert.Equal(t, role.Editor, grants[0].Role)
}

func TestRevokeGrant(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	ctx := context.Background()

	grantID, err := f.grants.Grant(ctx, f.track, grant.UserSubject(f.editor), role.Editor, f.owner)
	require.NoError(t, err)

	rec := f.do(t, http.MethodDelete, "/grants/"+grantID.String(), f.owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	g, err := f.grants.Get(ctx, grantID)
	require.NoError(t, err)
	assert.False(t, g.Active())

	rec = f.do(t, http.MethodDelete, "/grants/"+uuid.NewString(), f.owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/grants/not-a-uuid", f.owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatorRights(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	ctx := context.Background()

	creatorID := f.editor
	require.NoError(t, f.creators.EnsureCreated(ctx, f.track, creatorID))

	base := fmt.Sprintf("/entities/%s/%s/creator-rights/%s", f.track.Type, f.track.ID, creatorID)

	rec := f.do(t, http.MethodPost, base+"/revoke", f.owner, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	active, err := f.creators.IsActive(ctx, f.track, creatorID)
	require.NoError(t, err)
	assert.False(t, active)

	rec = f.do(t, http.MethodPost, base+"/restore", f.owner, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	active, err = f.creators.IsActive(ctx, f.track, creatorID)
	require.NoError(t, err)
	assert.True(t, active)

	// Unknown right: 404.
	missing := fmt.Sprintf("/entities/%s/%s/creator-rights/%s/revoke", f.track.Type, f.track.ID, uuid.New())
	rec = f.do(t, http.MethodPost, missing, f.owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Editors cannot toggle rights.
	rec = f.do(t, http.MethodPost, base+"/revoke", f.editor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMutationsPublishInvalidations(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	sub := f.bus.Subscribe(context.Background())
	defer sub.Close()

	subjectID := uuid.New()
	body := map[string]any{"subject_type": "user", "subject_id": subjectID, "role": "viewer"}
	rec := f.do(t, http.MethodPost, grantsPath(f.track), f.owner, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	select {
	case ev := <-sub.C():
		assert.Equal(t, f.track, ev.Entity)
		assert.Equal(t, f.projectID, ev.ProjectID)
		assert.Equal(t, []uuid.UUID{subjectID}, ev.AffectedUserIDs)
	case <-time.After(time.Second):
		t.Fatal("no invalidation event published")
	}
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, uuid.UUID, entity.Ref) (resolver.Resolution, error) {
	return resolver.Resolution{}, errors.Join(resolver.ErrUnavailable, errors.New("store down"))
}
