package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed Store. Membership rows carry an explicit
// active flag instead of being deleted, and the active check always joins
// against the group row so archived groups stop contributing immediately.
type PGStore struct {
	pool *pgxpool.Pool
	opts options
}

// NewPGStore creates a group store on top of a pgx connection pool.
func NewPGStore(pool *pgxpool.Pool, opts ...Option) *PGStore {
	s := &PGStore{pool: pool}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// CreateGroup creates an active group in the team.
func (s *PGStore) CreateGroup(ctx context.Context, teamID uuid.UUID, name string) (Group, error) {
	if name == "" {
		return Group{}, ErrEmptyName
	}

	g := Group{ID: uuid.New(), TeamID: teamID, Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO groups (id, team_id, name) VALUES ($1, $2, $3)
		 RETURNING created_at`,
		g.ID, teamID, name,
	).Scan(&g.CreatedAt)
	if err != nil {
		return Group{}, fmt.Errorf("group: create: %w", err)
	}
	return g, nil
}

// ArchiveGroup soft-archives the group.
func (s *PGStore) ArchiveGroup(ctx context.Context, groupID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE groups SET archived_at = now()
		 WHERE id = $1 AND archived_at IS NULL`,
		groupID)
	if err != nil {
		return fmt.Errorf("group: archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.groupExists(ctx, groupID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return nil // already archived
	}

	s.opts.notify(ctx, groupID)
	return nil
}

// AddMember activates the user's membership in the group.
func (s *PGStore) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	var archived bool
	err := s.pool.QueryRow(ctx,
		`SELECT archived_at IS NOT NULL FROM groups WHERE id = $1`,
		groupID,
	).Scan(&archived)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("group: add member: %w", err)
	}
	if archived {
		return ErrArchived
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, active)
		 VALUES ($1, $2, TRUE)
		 ON CONFLICT (group_id, user_id) DO UPDATE SET active = TRUE`,
		groupID, userID)
	if err != nil {
		return fmt.Errorf("group: add member: %w", err)
	}

	s.opts.notify(ctx, groupID)
	return nil
}

// RemoveMember deactivates the user's membership.
func (s *PGStore) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE group_members SET active = FALSE
		 WHERE group_id = $1 AND user_id = $2 AND active`,
		groupID, userID)
	if err != nil {
		return fmt.Errorf("group: remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil // absent or already inactive
	}

	s.opts.notify(ctx, groupID)
	return nil
}

// IsActiveMember reports whether the user is an active member of an active
// group.
func (s *PGStore) IsActiveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM group_members gm
		   JOIN groups g ON g.id = gm.group_id
		   WHERE gm.group_id = $1 AND gm.user_id = $2
		     AND gm.active AND g.archived_at IS NULL
		 )`,
		groupID, userID,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("group: is active member: %w", err)
	}
	return active, nil
}

// ListActiveGroupsForUser returns the team's active groups the user is an
// active member of.
func (s *PGStore) ListActiveGroupsForUser(ctx context.Context, teamID, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE g.team_id = $1 AND gm.user_id = $2
		   AND gm.active AND g.archived_at IS NULL`,
		teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("group: list for user: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("group: list for user: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("group: list for user: %w", err)
	}
	return out, nil
}

func (s *PGStore) groupExists(ctx context.Context, groupID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, groupID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("group: exists: %w", err)
	}
	return exists, nil
}
