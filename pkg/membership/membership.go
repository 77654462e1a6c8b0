package membership

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/role"
)

// Membership is a user's project-level role assignment. Rows are soft
// archived, never deleted; at most one row per (project, user) pair is
// active at a time.
type Membership struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Role       role.Role  `json:"role"`
	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Active reports whether the membership currently confers its role.
func (m Membership) Active() bool {
	return m.ArchivedAt == nil
}

// Store holds project memberships. Implementations must enforce the
// active-subset uniqueness invariant and keep archived rows for audit.
type Store interface {
	// GetActiveRole returns the user's active role in the project.
	// The boolean is false when the user holds no active membership;
	// that absence is an absolute gate for the resolver, not an error.
	GetActiveRole(ctx context.Context, projectID, userID uuid.UUID) (role.Role, bool, error)

	// Create adds an active membership. Returns ErrDuplicateActive when an
	// active membership already exists for the pair.
	Create(ctx context.Context, projectID, userID uuid.UUID, r role.Role) (Membership, error)

	// SetRole overwrites the role of an existing active membership.
	// Returns ErrNotFound when the user has no active membership.
	SetRole(ctx context.Context, projectID, userID uuid.UUID, r role.Role) error

	// Archive soft-removes the user's active membership. Refuses with
	// ErrLastOwner when the membership is the project's final active Owner.
	// Returns ErrNotFound when there is nothing active to archive.
	Archive(ctx context.Context, projectID, userID uuid.UUID) error

	// ListActive returns all active memberships of a project.
	ListActive(ctx context.Context, projectID uuid.UUID) ([]Membership, error)
}

// MutationHook is invoked after a membership mutation has committed and
// before the mutating call returns. The resolution cache hangs off this to
// purge every entry under the affected project.
type MutationHook func(ctx context.Context, projectID, userID uuid.UUID)

// Option configures a store implementation.
type Option func(*options)

type options struct {
	hooks []MutationHook
}

// WithMutationHook registers a hook fired synchronously after each committed
// mutation. Multiple hooks run in registration order.
func WithMutationHook(h MutationHook) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = append(o.hooks, h)
		}
	}
}

func (o *options) notify(ctx context.Context, projectID, userID uuid.UUID) {
	for _, h := range o.hooks {
		h(ctx, projectID, userID)
	}
}
