package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SharedMindsApp/accesskit/pkg/role"
)

const pgUniqueViolation = "23505"

// PGStore is the Postgres-backed Store. The one-active-row-per-pair
// invariant lives in a partial unique index on the active subset, so
// concurrent creates race on the constraint instead of an in-process lock.
type PGStore struct {
	pool *pgxpool.Pool
	opts options
}

// NewPGStore creates a membership store on top of a pgx connection pool.
func NewPGStore(pool *pgxpool.Pool, opts ...Option) *PGStore {
	s := &PGStore{pool: pool}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// GetActiveRole returns the user's active role in the project.
func (s *PGStore) GetActiveRole(ctx context.Context, projectID, userID uuid.UUID) (role.Role, bool, error) {
	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT role FROM project_memberships
		 WHERE project_id = $1 AND user_id = $2 AND archived_at IS NULL`,
		projectID, userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return role.None, false, nil
	}
	if err != nil {
		return role.None, false, fmt.Errorf("membership: get active role: %w", err)
	}

	r, err := role.Parse(raw)
	if err != nil {
		return role.None, false, fmt.Errorf("membership: stored role %q: %w", raw, err)
	}
	return r, true, nil
}

// Create adds an active membership for the pair.
func (s *PGStore) Create(ctx context.Context, projectID, userID uuid.UUID, r role.Role) (Membership, error) {
	if !r.Valid() || r == role.None {
		return Membership{}, ErrInvalidRole
	}

	m := Membership{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      r,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO project_memberships (id, project_id, user_id, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		m.ID, projectID, userID, r.String(),
	).Scan(&m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Membership{}, ErrDuplicateActive
		}
		return Membership{}, fmt.Errorf("membership: create: %w", err)
	}

	s.opts.notify(ctx, projectID, userID)
	return m, nil
}

// SetRole overwrites the role of the pair's active membership. The project's
// active rows are locked for the duration of the check so a concurrent
// archive cannot slip past the last-owner guard.
func (s *PGStore) SetRole(ctx context.Context, projectID, userID uuid.UUID, r role.Role) error {
	if !r.Valid() || r == role.None {
		return ErrInvalidRole
	}

	err := s.withProjectLock(ctx, projectID, func(tx pgx.Tx, rows []lockedRow) error {
		target, owners := findTarget(rows, userID)
		if target == nil {
			return ErrNotFound
		}
		if target.role == role.Owner && r != role.Owner && owners == 1 {
			return ErrLastOwner
		}
		_, err := tx.Exec(ctx,
			`UPDATE project_memberships SET role = $1 WHERE id = $2`,
			r.String(), target.id)
		return err
	})
	if err != nil {
		return err
	}

	s.opts.notify(ctx, projectID, userID)
	return nil
}

// Archive soft-removes the pair's active membership.
func (s *PGStore) Archive(ctx context.Context, projectID, userID uuid.UUID) error {
	err := s.withProjectLock(ctx, projectID, func(tx pgx.Tx, rows []lockedRow) error {
		target, owners := findTarget(rows, userID)
		if target == nil {
			return ErrNotFound
		}
		if target.role == role.Owner && owners == 1 {
			return ErrLastOwner
		}
		_, err := tx.Exec(ctx,
			`UPDATE project_memberships SET archived_at = now() WHERE id = $1`,
			target.id)
		return err
	})
	if err != nil {
		return err
	}

	s.opts.notify(ctx, projectID, userID)
	return nil
}

// ListActive returns all active memberships of the project.
func (s *PGStore) ListActive(ctx context.Context, projectID uuid.UUID) ([]Membership, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, user_id, role, created_at
		 FROM project_memberships
		 WHERE project_id = $1 AND archived_at IS NULL
		 ORDER BY created_at`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("membership: list active: %w", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		var raw string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &raw, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("membership: list active: %w", err)
		}
		if m.Role, err = role.Parse(raw); err != nil {
			return nil, fmt.Errorf("membership: stored role %q: %w", raw, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("membership: list active: %w", err)
	}
	return out, nil
}

type lockedRow struct {
	id     uuid.UUID
	userID uuid.UUID
	role   role.Role
}

// withProjectLock runs fn inside a transaction holding row locks on every
// active membership of the project.
func (s *PGStore) withProjectLock(ctx context.Context, projectID uuid.UUID, fn func(pgx.Tx, []lockedRow) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("membership: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT id, user_id, role FROM project_memberships
		 WHERE project_id = $1 AND archived_at IS NULL
		 FOR UPDATE`,
		projectID)
	if err != nil {
		return fmt.Errorf("membership: lock project rows: %w", err)
	}

	var locked []lockedRow
	for rows.Next() {
		var lr lockedRow
		var raw string
		if err := rows.Scan(&lr.id, &lr.userID, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("membership: lock project rows: %w", err)
		}
		if lr.role, err = role.Parse(raw); err != nil {
			rows.Close()
			return fmt.Errorf("membership: stored role %q: %w", raw, err)
		}
		locked = append(locked, lr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("membership: lock project rows: %w", err)
	}

	if err := fn(tx, locked); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("membership: commit: %w", err)
	}
	return nil
}

func findTarget(rows []lockedRow, userID uuid.UUID) (*lockedRow, int) {
	var target *lockedRow
	owners := 0
	for i := range rows {
		if rows[i].role == role.Owner {
			owners++
		}
		if rows[i].userID == userID {
			target = &rows[i]
		}
	}
	return target, owners
}
