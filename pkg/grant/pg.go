package grant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

const pgUniqueViolation = "23505"

// PGStore is the Postgres-backed Store. The one-active-grant-per-subject
// invariant is a partial unique index on the active subset; concurrent
// grants race on the constraint optimistically and the loser gets the
// typed conflict error.
type PGStore struct {
	pool *pgxpool.Pool
	opts options
}

// NewPGStore creates a grant store on top of a pgx connection pool.
func NewPGStore(pool *pgxpool.Pool, opts ...Option) *PGStore {
	s := &PGStore{pool: pool}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// Grant creates an active grant for the (entity, subject) pair.
func (s *PGStore) Grant(ctx context.Context, ref entity.Ref, subject Subject, r role.Role, grantedBy uuid.UUID) (uuid.UUID, error) {
	if !r.Valid() || r == role.None {
		return uuid.Nil, ErrInvalidRole
	}
	if subject.Type != SubjectUser && subject.Type != SubjectGroup {
		return uuid.Nil, ErrInvalidSubject
	}

	id := uuid.New()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO entity_grants
		   (id, entity_type, entity_id, subject_type, subject_id, role, granted_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, string(ref.Type), ref.ID, string(subject.Type), subject.ID, r.String(), grantedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return uuid.Nil, ErrDuplicateActive
		}
		return uuid.Nil, fmt.Errorf("grant: create: %w", err)
	}

	s.opts.notify(ctx, ref)
	return id, nil
}

// Revoke marks the grant revoked; a second revoke is a no-op success.
func (s *PGStore) Revoke(ctx context.Context, grantID, revokedBy uuid.UUID) error {
	var (
		refType string
		refID   uuid.UUID
	)
	err := s.pool.QueryRow(ctx,
		`UPDATE entity_grants
		 SET revoked_at = now(), revoked_by = $2
		 WHERE id = $1 AND revoked_at IS NULL
		 RETURNING entity_type, entity_id`,
		grantID, revokedBy,
	).Scan(&refType, &refID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either unknown or already revoked; only the former is an error.
		if _, err := s.Get(ctx, grantID); err != nil {
			return err
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("grant: revoke: %w", err)
	}

	s.opts.notify(ctx, entity.Ref{Type: entity.Type(refType), ID: refID})
	return nil
}

// ListActive returns all active grants on the entity.
func (s *PGStore) ListActive(ctx context.Context, ref entity.Ref) ([]Grant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, entity_type, entity_id, subject_type, subject_id, role,
		        granted_by, granted_at, revoked_at, revoked_by
		 FROM entity_grants
		 WHERE entity_type = $1 AND entity_id = $2 AND revoked_at IS NULL
		 ORDER BY granted_at`,
		string(ref.Type), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("grant: list active: %w", err)
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grant: list active: %w", err)
	}
	return out, nil
}

// Get returns a grant by ID, revoked or not.
func (s *PGStore) Get(ctx context.Context, grantID uuid.UUID) (Grant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, entity_type, entity_id, subject_type, subject_id, role,
		        granted_by, granted_at, revoked_at, revoked_by
		 FROM entity_grants WHERE id = $1`,
		grantID)

	g, err := scanGrant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, ErrNotFound
	}
	if err != nil {
		return Grant{}, err
	}
	return g, nil
}

func scanGrant(row pgx.Row) (Grant, error) {
	var (
		g           Grant
		refType     string
		subjectType string
		rawRole     string
	)
	err := row.Scan(&g.ID, &refType, &g.Entity.ID, &subjectType, &g.Subject.ID,
		&rawRole, &g.GrantedBy, &g.GrantedAt, &g.RevokedAt, &g.RevokedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, err
		}
		return Grant{}, fmt.Errorf("grant: scan: %w", err)
	}
	g.Entity.Type = entity.Type(refType)
	g.Subject.Type = SubjectType(subjectType)
	if g.Role, err = role.Parse(rawRole); err != nil {
		return Grant{}, fmt.Errorf("grant: stored role %q: %w", rawRole, err)
	}
	return g, nil
}
