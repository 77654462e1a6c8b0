package grant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

// SubjectType discriminates grant targets.
type SubjectType string

const (
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

// Subject is the target of a grant: an individual user or a group.
type Subject struct {
	Type SubjectType `json:"type"`
	ID   uuid.UUID   `json:"id"`
}

// UserSubject creates a subject naming a single user.
func UserSubject(userID uuid.UUID) Subject {
	return Subject{Type: SubjectUser, ID: userID}
}

// GroupSubject creates a subject naming a group.
func GroupSubject(groupID uuid.UUID) Subject {
	return Subject{Type: SubjectGroup, ID: groupID}
}

// Grant is an explicit, revocable role assignment on one entity. Revoked
// rows are kept with their audit timestamps; at most one grant per
// (entity, subject) pair is active at a time.
type Grant struct {
	ID        uuid.UUID  `json:"id"`
	Entity    entity.Ref `json:"entity"`
	Subject   Subject    `json:"subject"`
	Role      role.Role  `json:"role"`
	GrantedBy uuid.UUID  `json:"granted_by"`
	GrantedAt time.Time  `json:"granted_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	RevokedBy *uuid.UUID `json:"revoked_by,omitempty"`
}

// Active reports whether the grant currently confers its role.
func (g Grant) Active() bool {
	return g.RevokedAt == nil
}

// Store holds entity grants.
type Store interface {
	// Grant creates an active grant and returns its ID. Fails with
	// ErrDuplicateActive when an active grant already exists for the
	// (entity, subject) pair; changing a role is revoke-then-grant.
	Grant(ctx context.Context, ref entity.Ref, subject Subject, r role.Role, grantedBy uuid.UUID) (uuid.UUID, error)

	// Revoke marks the grant revoked. Revoking an already-revoked grant
	// succeeds so retries are safe. Returns ErrNotFound for an unknown ID.
	Revoke(ctx context.Context, grantID, revokedBy uuid.UUID) error

	// ListActive returns all active grants on the entity.
	ListActive(ctx context.Context, ref entity.Ref) ([]Grant, error)

	// Get returns a grant by ID, revoked or not.
	Get(ctx context.Context, grantID uuid.UUID) (Grant, error)
}

// MutationHook is invoked after a grant mutation has committed and before
// the mutating call returns.
type MutationHook func(ctx context.Context, ref entity.Ref)

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

func (o *options) notify(ctx context.Context, ref entity.Ref) {
	for _, h := range o.hooks {
		h(ctx, ref)
	}
}
