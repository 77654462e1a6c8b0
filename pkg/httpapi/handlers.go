package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/creator"
	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/events"
	"github.com/SharedMindsApp/accesskit/pkg/grant"
	"github.com/SharedMindsApp/accesskit/pkg/resolver"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

type handlers struct {
	resolver Resolver
	grants   grant.Store
	creators creator.Store
	bus      *events.Bus
	log      *slog.Logger
}

type resolveRequest struct {
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ref := entity.NewRef(entity.Type(req.EntityType), req.EntityID)

	res, err := h.resolver.Resolve(r.Context(), userID, ref)
	if err != nil {
		h.writeResolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type createGrantRequest struct {
	SubjectType string    `json:"subject_type"`
	SubjectID   uuid.UUID `json:"subject_id"`
	Role        role.Role `json:"role"`
}

type createGrantResponse struct {
	GrantID uuid.UUID `json:"grant_id"`
}

func (h *handlers) createGrant(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	ref, ok := entityRef(w, r)
	if !ok {
		return
	}
	res, ok := h.requireProjectOwner(w, r, userID, ref)
	if !ok {
		return
	}

	var req createGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subject := grant.Subject{Type: grant.SubjectType(req.SubjectType), ID: req.SubjectID}
	grantID, err := h.grants.Grant(r.Context(), ref, subject, req.Role, userID)
	switch {
	case errors.Is(err, grant.ErrDuplicateActive):
		writeError(w, http.StatusConflict, "an active grant already exists for this subject")
		return
	case errors.Is(err, grant.ErrInvalidRole), errors.Is(err, grant.ErrInvalidSubject):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "grant creation failed", "entity", ref, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	h.publish(r, ref, res.ProjectID, subject)
	writeJSON(w, http.StatusCreated, createGrantResponse{GrantID: grantID})
}

func (h *handlers) revokeGrant(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	grantID, err := uuid.Parse(chi.URLParam(r, "grantID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid grant id")
		return
	}

	g, err := h.grants.Get(r.Context(), grantID)
	if errors.Is(err, grant.ErrNotFound) {
		writeError(w, http.StatusNotFound, "grant not found")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "grant lookup failed", "grant_id", grantID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	res, ok := h.requireProjectOwner(w, r, userID, g.Entity)
	if !ok {
		return
	}

	if err := h.grants.Revoke(r.Context(), grantID, userID); err != nil {
		h.log.ErrorContext(r.Context(), "grant revocation failed", "grant_id", grantID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	h.publish(r, g.Entity, res.ProjectID, g.Subject)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listGrants(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	ref, ok := entityRef(w, r)
	if !ok {
		return
	}
	if _, ok := h.requireProjectOwner(w, r, userID, ref); !ok {
		return
	}

	grants, err := h.grants.ListActive(r.Context(), ref)
	if err != nil {
		h.log.ErrorContext(r.Context(), "grant listing failed", "entity", ref, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	if grants == nil {
		grants = []grant.Grant{}
	}
	writeJSON(w, http.StatusOK, grants)
}

func (h *handlers) revokeCreatorRight(w http.ResponseWriter, r *http.Request) {
	h.toggleCreatorRight(w, r, h.creators.Revoke)
}

func (h *handlers) restoreCreatorRight(w http.ResponseWriter, r *http.Request) {
	h.toggleCreatorRight(w, r, h.creators.Restore)
}

func (h *handlers) toggleCreatorRight(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ref entity.Ref, creatorID, actorID uuid.UUID) error) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	ref, ok := entityRef(w, r)
	if !ok {
		return
	}
	creatorID, err := uuid.Parse(chi.URLParam(r, "creatorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid creator id")
		return
	}
	res, ok := h.requireProjectOwner(w, r, userID, ref)
	if !ok {
		return
	}

	if err := op(r.Context(), ref, creatorID, userID); err != nil {
		if errors.Is(err, creator.ErrNotFound) {
			writeError(w, http.StatusNotFound, "creator right not found")
			return
		}
		h.log.ErrorContext(r.Context(), "creator right toggle failed", "entity", ref, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	h.publish(r, ref, res.ProjectID, grant.UserSubject(creatorID))
	w.WriteHeader(http.StatusNoContent)
}

// requireProjectOwner resolves the caller against the entity's owning
// project and admits only Owners. Non-owners who can at least view the
// entity get 403; everyone else gets 404 so the response does not reveal
// whether the entity exists.
func (h *handlers) requireProjectOwner(w http.ResponseWriter, r *http.Request, userID uuid.UUID, ref entity.Ref) (resolver.Resolution, bool) {
	res, err := h.resolver.Resolve(r.Context(), userID, ref)
	if err != nil {
		h.writeResolveError(w, r, err)
		return resolver.Resolution{}, false
	}
	if !res.CanView {
		writeError(w, http.StatusNotFound, "not found")
		return resolver.Resolution{}, false
	}

	projectRes, err := h.resolver.Resolve(r.Context(), userID, entity.ProjectRef(res.ProjectID))
	if err != nil {
		h.writeResolveError(w, r, err)
		return resolver.Resolution{}, false
	}
	if !projectRes.CanManage {
		writeError(w, http.StatusForbidden, "owner role required")
		return resolver.Resolution{}, false
	}
	return res, true
}

func (h *handlers) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, resolver.ErrEntityNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		// Fail closed: an unavailable resolution denies, it never allows.
		h.log.ErrorContext(r.Context(), "resolution failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "permission resolution unavailable")
	}
}

func (h *handlers) publish(r *http.Request, ref entity.Ref, projectID uuid.UUID, subject grant.Subject) {
	if h.bus == nil {
		return
	}
	ev := events.Invalidation{Entity: ref, ProjectID: projectID}
	if subject.Type == grant.SubjectUser {
		ev.AffectedUserIDs = []uuid.UUID{subject.ID}
	}
	h.bus.Publish(r.Context(), ev)
}
