package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/creator"
	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/grant"
	"github.com/SharedMindsApp/accesskit/pkg/group"
	"github.com/SharedMindsApp/accesskit/pkg/membership"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

// Service computes effective permissions. It is a pure read path: no
// mutable state beyond the injected stores, so any number of resolutions
// may run concurrently.
type Service struct {
	directory   ProjectDirectory
	memberships membership.Store
	groups      group.Store
	grants      grant.Store
	creators    creator.Store
	log         *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for denied and failed resolutions.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a resolver over the given directory and stores.
func New(
	directory ProjectDirectory,
	memberships membership.Store,
	groups group.Store,
	grants grant.Store,
	creators creator.Store,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		directory:   directory,
		memberships: memberships,
		groups:      groups,
		grants:      grants,
		creators:    creators,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve computes the effective role and capabilities of userID on the
// referenced entity.
//
// Project membership is checked first and is absolute: without an active
// membership in the owning project the result is role None and no other
// store is consulted, so no grant or creator right can open a side door.
// A project Owner short-circuits with full capabilities before any grant
// or creator lookup, which keeps Owner access alive even when those
// stores are unreachable. For everyone else the best of the creator
// right and the applicable grants is capped at the project role.
//
// Store failures surface as ErrUnavailable; callers must treat that as no
// capability.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID, ref entity.Ref) (Resolution, error) {
	projectID, err := s.owningProject(ctx, ref)
	if err != nil {
		return Resolution{}, err
	}
	return s.resolveInProject(ctx, userID, ref, projectID)
}

// owningProject maps the entity to its project. Project references are
// their own authority and skip the directory.
func (s *Service) owningProject(ctx context.Context, ref entity.Ref) (uuid.UUID, error) {
	if ref.IsProject() {
		return ref.ID, nil
	}

	projectID, err := s.directory.OwningProject(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, errors.Join(ErrUnavailable, err)
	}
	return projectID, nil
}

func (s *Service) resolveInProject(ctx context.Context, userID uuid.UUID, ref entity.Ref, projectID uuid.UUID) (Resolution, error) {
	projectRole, member, err := s.memberships.GetActiveRole(ctx, projectID, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "membership lookup failed",
			"project_id", projectID, "user_id", userID, "error", err)
		return Resolution{}, errors.Join(ErrUnavailable, err)
	}
	if !member {
		// Absolute gate: no membership, no capability, no further I/O.
		return newResolution(ref, projectID, role.None, nil), nil
	}

	if projectRole == role.Owner {
		return newResolution(ref, projectID, role.Owner,
			[]Source{{Kind: SourceProjectRole, Role: role.Owner}}), nil
	}

	if ref.IsProject() {
		// Project role is authoritative at the top; grants never attach
		// above the entity level.
		return newResolution(ref, projectID, projectRole,
			[]Source{{Kind: SourceProjectRole, Role: projectRole}}), nil
	}

	sources := []Source{{Kind: SourceProjectRole, Role: projectRole}}
	candidate := role.None

	creatorActive, err := s.creators.IsActive(ctx, ref, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "creator right lookup failed",
			"entity", ref, "user_id", userID, "error", err)
		return Resolution{}, errors.Join(ErrUnavailable, err)
	}
	if creatorActive {
		candidate = role.Max(candidate, role.Editor)
		sources = append(sources, Source{Kind: SourceCreatorRight, Role: role.Editor})
	}

	grants, err := s.grants.ListActive(ctx, ref)
	if err != nil {
		s.log.ErrorContext(ctx, "grant lookup failed",
			"entity", ref, "user_id", userID, "error", err)
		return Resolution{}, errors.Join(ErrUnavailable, err)
	}
	for _, g := range grants {
		applies, err := s.grantApplies(ctx, g, userID)
		if err != nil {
			return Resolution{}, err
		}
		if !applies {
			continue
		}
		candidate = role.Max(candidate, g.Role)
		grantID := g.ID
		subject := g.Subject
		sources = append(sources, Source{
			Kind:    SourceGrant,
			Role:    g.Role,
			GrantID: &grantID,
			Subject: &subject,
		})
	}

	if candidate == role.None {
		// Any project member may at least view.
		candidate = role.Viewer
	}

	final := role.Min(candidate, projectRole)
	return newResolution(ref, projectID, final, sources), nil
}

// grantApplies reports whether the grant names the user, directly or via a
// group the user is an active member of right now.
func (s *Service) grantApplies(ctx context.Context, g grant.Grant, userID uuid.UUID) (bool, error) {
	switch g.Subject.Type {
	case grant.SubjectUser:
		return g.Subject.ID == userID, nil
	case grant.SubjectGroup:
		member, err := s.groups.IsActiveMember(ctx, g.Subject.ID, userID)
		if err != nil {
			s.log.ErrorContext(ctx, "group membership lookup failed",
				"group_id", g.Subject.ID, "user_id", userID, "error", err)
			return false, errors.Join(ErrUnavailable, err)
		}
		return member, nil
	default:
		return false, nil
	}
}
