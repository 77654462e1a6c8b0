package creator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

// Right records whether an entity creator's implicit edit right is
// currently active. Exactly one record exists per (entity, creator); it is
// created when the entity is created, toggled by explicit revoke/restore
// actions, and never deleted. While active it behaves as an implicit
// Editor-equivalent grant.
type Right struct {
	Entity     entity.Ref `json:"entity"`
	CreatorID  uuid.UUID  `json:"creator_id"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	RevokedBy  *uuid.UUID `json:"revoked_by,omitempty"`
	RestoredAt *time.Time `json:"restored_at,omitempty"`
	RestoredBy *uuid.UUID `json:"restored_by,omitempty"`
}

// Store holds creator rights.
//
// Revoke and Restore require the acting user to hold Owner on the entity's
// project; that gate belongs to the caller, which resolves against the
// project itself to avoid recursing into the entity being toggled.
type Store interface {
	// EnsureCreated records the creator's right for a freshly created
	// entity, defaulting to active. Idempotent: a second call for the same
	// (entity, creator) leaves the existing record untouched.
	EnsureCreated(ctx context.Context, ref entity.Ref, creatorID uuid.UUID) error

	// IsActive reports whether the user holds an active creator right on
	// the entity. False when no record exists for the user.
	IsActive(ctx context.Context, ref entity.Ref, userID uuid.UUID) (bool, error)

	// Revoke deactivates the creator's right. Idempotent against an
	// already-revoked right. Returns ErrNotFound when no record exists.
	Revoke(ctx context.Context, ref entity.Ref, creatorID, revokedBy uuid.UUID) error

	// Restore reactivates a revoked right with its original implied role.
	// Idempotent against an already-active right. Returns ErrNotFound when
	// no record exists.
	Restore(ctx context.Context, ref entity.Ref, creatorID, restoredBy uuid.UUID) error

	// Get returns the full record for audit purposes.
	Get(ctx context.Context, ref entity.Ref, creatorID uuid.UUID) (Right, error)
}

// MutationHook is invoked after a revoke or restore has committed and
// before the mutating call returns.
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
