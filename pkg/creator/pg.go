package creator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

// PGStore is the Postgres-backed Store. One row per (entity, creator),
// guarded by the table's primary key; EnsureCreated is an upsert no-op on
// conflict so entity-creation retries are safe.
type PGStore struct {
	pool *pgxpool.Pool
	opts options
}

// NewPGStore creates a creator rights store on top of a pgx connection pool.
func NewPGStore(pool *pgxpool.Pool, opts ...Option) *PGStore {
	s := &PGStore{pool: pool}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// EnsureCreated records an active right for a freshly created entity.
func (s *PGStore) EnsureCreated(ctx context.Context, ref entity.Ref, creatorID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO creator_rights (entity_type, entity_id, creator_id, active)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (entity_type, entity_id, creator_id) DO NOTHING`,
		string(ref.Type), ref.ID, creatorID)
	if err != nil {
		return fmt.Errorf("creator: ensure created: %w", err)
	}
	return nil
}

// IsActive reports whether the user holds an active creator right.
func (s *PGStore) IsActive(ctx context.Context, ref entity.Ref, userID uuid.UUID) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM creator_rights
		   WHERE entity_type = $1 AND entity_id = $2 AND creator_id = $3 AND active
		 )`,
		string(ref.Type), ref.ID, userID,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("creator: is active: %w", err)
	}
	return active, nil
}

// Revoke deactivates the creator's right.
func (s *PGStore) Revoke(ctx context.Context, ref entity.Ref, creatorID, revokedBy uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE creator_rights
		 SET active = FALSE, revoked_at = now(), revoked_by = $4
		 WHERE entity_type = $1 AND entity_id = $2 AND creator_id = $3 AND active`,
		string(ref.Type), ref.ID, creatorID, revokedBy)
	if err != nil {
		return fmt.Errorf("creator: revoke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, ref, creatorID); err != nil {
			return err
		}
		return nil // already revoked
	}

	s.opts.notify(ctx, ref)
	return nil
}

// Restore reactivates a revoked right.
func (s *PGStore) Restore(ctx context.Context, ref entity.Ref, creatorID, restoredBy uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE creator_rights
		 SET active = TRUE, restored_at = now(), restored_by = $4
		 WHERE entity_type = $1 AND entity_id = $2 AND creator_id = $3 AND NOT active`,
		string(ref.Type), ref.ID, creatorID, restoredBy)
	if err != nil {
		return fmt.Errorf("creator: restore: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, ref, creatorID); err != nil {
			return err
		}
		return nil // already active
	}

	s.opts.notify(ctx, ref)
	return nil
}

// Get returns the full record for audit purposes.
func (s *PGStore) Get(ctx context.Context, ref entity.Ref, creatorID uuid.UUID) (Right, error) {
	var r Right
	var refType string
	err := s.pool.QueryRow(ctx,
		`SELECT entity_type, entity_id, creator_id, active, created_at,
		        revoked_at, revoked_by, restored_at, restored_by
		 FROM creator_rights
		 WHERE entity_type = $1 AND entity_id = $2 AND creator_id = $3`,
		string(ref.Type), ref.ID, creatorID,
	).Scan(&refType, &r.Entity.ID, &r.CreatorID, &r.Active, &r.CreatedAt,
		&r.RevokedAt, &r.RevokedBy, &r.RestoredAt, &r.RestoredBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Right{}, ErrNotFound
	}
	if err != nil {
		return Right{}, fmt.Errorf("creator: get: %w", err)
	}
	r.Entity.Type = entity.Type(refType)
	return r, nil
}
