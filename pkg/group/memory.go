package group

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memberKey struct {
	groupID uuid.UUID
	userID  uuid.UUID
}

// MemoryStore is an in-memory Store for tests and single-process hosts.
type MemoryStore struct {
	mu      sync.RWMutex
	groups  map[uuid.UUID]*Group
	members map[memberKey]*Member
	opts    options
}

// NewMemoryStore creates an empty in-memory group store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		groups:  make(map[uuid.UUID]*Group),
		members: make(map[memberKey]*Member),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// CreateGroup creates an active group in the team.
func (s *MemoryStore) CreateGroup(ctx context.Context, teamID uuid.UUID, name string) (Group, error) {
	if name == "" {
		return Group{}, ErrEmptyName
	}

	s.mu.Lock()
	g := &Group{
		ID:        uuid.New(),
		TeamID:    teamID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.groups[g.ID] = g
	created := *g
	s.mu.Unlock()

	return created, nil
}

// ArchiveGroup soft-archives the group.
func (s *MemoryStore) ArchiveGroup(ctx context.Context, groupID uuid.UUID) error {
	s.mu.Lock()
	g, ok := s.groups[groupID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if g.ArchivedAt != nil {
		s.mu.Unlock()
		return nil
	}
	now := time.Now().UTC()
	g.ArchivedAt = &now
	s.mu.Unlock()

	s.opts.notify(ctx, groupID)
	return nil
}

// AddMember activates the user's membership in the group.
func (s *MemoryStore) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	s.mu.Lock()
	g, ok := s.groups[groupID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if g.ArchivedAt != nil {
		s.mu.Unlock()
		return ErrArchived
	}

	key := memberKey{groupID, userID}
	if m, exists := s.members[key]; exists {
		if m.Active {
			s.mu.Unlock()
			return nil
		}
		m.Active = true
	} else {
		s.members[key] = &Member{
			GroupID:   groupID,
			UserID:    userID,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}
	}
	s.mu.Unlock()

	s.opts.notify(ctx, groupID)
	return nil
}

// RemoveMember deactivates the user's membership.
func (s *MemoryStore) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	s.mu.Lock()
	m, exists := s.members[memberKey{groupID, userID}]
	if !exists || !m.Active {
		s.mu.Unlock()
		return nil
	}
	m.Active = false
	s.mu.Unlock()

	s.opts.notify(ctx, groupID)
	return nil
}

// IsActiveMember reports whether the user is an active member of an active
// group.
func (s *MemoryStore) IsActiveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok || g.ArchivedAt != nil {
		return false, nil
	}
	m, exists := s.members[memberKey{groupID, userID}]
	return exists && m.Active, nil
}

// ListActiveGroupsForUser returns the team's active groups the user is an
// active member of.
func (s *MemoryStore) ListActiveGroupsForUser(ctx context.Context, teamID, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []uuid.UUID
	for key, m := range s.members {
		if key.userID != userID || !m.Active {
			continue
		}
		g, ok := s.groups[key.groupID]
		if !ok || g.TeamID != teamID || g.ArchivedAt != nil {
			continue
		}
		out = append(out, key.groupID)
	}
	return out, nil
}
