package httpapi

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/creator"
	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/events"
	"github.com/SharedMindsApp/accesskit/pkg/grant"
	"github.com/SharedMindsApp/accesskit/pkg/resolver"
)

// UserIDHeader carries the verified caller identity, injected by the
// host's authentication layer. The engine never authenticates; it trusts
// this header the way it trusts an in-process userID argument.
const UserIDHeader = "X-User-ID"

// Resolver is the read path the handlers gate on. Both resolver.Service
// and resolver.CachedService satisfy it.
type Resolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, ref entity.Ref) (resolver.Resolution, error)
}

// Options wires the handlers' dependencies.
type Options struct {
	Resolver Resolver
	Grants   grant.Store
	Creators creator.Store

	// Bus, when set, receives advisory invalidation events for committed
	// mutations performed through this API.
	Bus *events.Bus

	Logger *slog.Logger
}

// Router mounts the permission engine's HTTP surface.
//
//	r := chi.NewRouter()
//	r.Mount("/permissions", httpapi.Router(httpapi.Options{...}))
func Router(opts Options) chi.Router {
	h := &handlers{
		resolver: opts.Resolver,
		grants:   opts.Grants,
		creators: opts.Creators,
		bus:      opts.Bus,
		log:      opts.Logger,
	}
	if h.log == nil {
		h.log = slog.Default()
	}

	r := chi.NewRouter()
	r.Post("/resolve", h.resolve)
	r.Route("/entities/{entityType}/{entityID}", func(er chi.Router) {
		er.Get("/grants", h.listGrants)
		er.Post("/grants", h.createGrant)
		er.Post("/creator-rights/{creatorID}/revoke", h.revokeCreatorRight)
		er.Post("/creator-rights/{creatorID}/restore", h.restoreCreatorRight)
	})
	r.Delete("/grants/{grantID}", h.revokeGrant)
	return r
}
