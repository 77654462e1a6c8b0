package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// callerID extracts the verified caller identity from the request. Writes
// 401 and returns false when the header is missing or malformed.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid "+UserIDHeader+" header")
		return uuid.Nil, false
	}
	return id, true
}

// entityRef extracts the entity reference from the URL. Writes 400 and
// returns false on a malformed ID.
func entityRef(w http.ResponseWriter, r *http.Request) (entity.Ref, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return entity.Ref{}, false
	}
	return entity.NewRef(entity.Type(chi.URLParam(r, "entityType")), id), true
}
