package group

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Group is a team-scoped collection of users usable as a grant subject.
// Groups never hold project-level roles themselves; they only receive
// entity grants, and a grant naming a group counts for a user only while
// that user is an active member at resolution time.
type Group struct {
	ID         uuid.UUID  `json:"id"`
	TeamID     uuid.UUID  `json:"team_id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Member is a user's row in a group. Inactive rows are kept for history.
type Member struct {
	GroupID   uuid.UUID `json:"group_id"`
	UserID    uuid.UUID `json:"user_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds groups and their memberships.
//
// Membership checks are always live: the resolver calls IsActiveMember at
// resolution time instead of snapshotting group membership into grants, so
// removing a user from a group takes effect on the next resolution without
// touching any grant.
type Store interface {
	// CreateGroup creates an active group in the team.
	CreateGroup(ctx context.Context, teamID uuid.UUID, name string) (Group, error)

	// ArchiveGroup soft-archives the group. An archived group contributes
	// nothing: IsActiveMember reports false for every user. Idempotent.
	ArchiveGroup(ctx context.Context, groupID uuid.UUID) error

	// AddMember activates the user's membership in the group. Idempotent
	// against an already-active member.
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error

	// RemoveMember deactivates the user's membership. Idempotent against an
	// absent or already-inactive member.
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error

	// IsActiveMember reports whether the user is an active member of an
	// active (non-archived) group.
	IsActiveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)

	// ListActiveGroupsForUser returns the IDs of the team's active groups
	// the user is an active member of.
	ListActiveGroupsForUser(ctx context.Context, teamID, userID uuid.UUID) ([]uuid.UUID, error)
}

// MutationHook is invoked after a group mutation has committed. Group
// changes can affect any entity holding a grant to that group, so cache
// consumers purge coarsely.
type MutationHook func(ctx context.Context, groupID uuid.UUID)

// Option configures a store implementation.
type Option func(*options)

type options struct {
	hooks []MutationHook
}

// WithMutationHook registers a hook fired synchronously after each committed
// mutation.
func WithMutationHook(h MutationHook) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = append(o.hooks, h)
		}
	}
}

func (o *options) notify(ctx context.Context, groupID uuid.UUID) {
	for _, h := range o.hooks {
		h(ctx, groupID)
	}
}
