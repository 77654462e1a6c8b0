package membership

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/role"
)

type pairKey struct {
	projectID uuid.UUID
	userID    uuid.UUID
}

// MemoryStore is an in-memory Store for tests and single-process hosts.
// A single mutex serializes mutations, which is the in-process equivalent
// of the row-level locking the Postgres store relies on.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []*Membership
	active map[pairKey]*Membership
	opts   options
}

// NewMemoryStore creates an empty in-memory membership store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{active: make(map[pairKey]*Membership)}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// GetActiveRole returns the user's active role in the project.
func (s *MemoryStore) GetActiveRole(ctx context.Context, projectID, userID uuid.UUID) (role.Role, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.active[pairKey{projectID, userID}]
	if !ok {
		return role.None, false, nil
	}
	return m.Role, true, nil
}

// Create adds an active membership for the pair.
func (s *MemoryStore) Create(ctx context.Context, projectID, userID uuid.UUID, r role.Role) (Membership, error) {
	if !r.Valid() || r == role.None {
		return Membership{}, ErrInvalidRole
	}

	s.mu.Lock()
	key := pairKey{projectID, userID}
	if _, exists := s.active[key]; exists {
		s.mu.Unlock()
		return Membership{}, ErrDuplicateActive
	}

	m := &Membership{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      r,
		CreatedAt: time.Now().UTC(),
	}
	s.rows = append(s.rows, m)
	s.active[key] = m
	created := *m
	s.mu.Unlock()

	s.opts.notify(ctx, projectID, userID)
	return created, nil
}

// SetRole overwrites the role of the pair's active membership.
func (s *MemoryStore) SetRole(ctx context.Context, projectID, userID uuid.UUID, r role.Role) error {
	if !r.Valid() || r == role.None {
		return ErrInvalidRole
	}

	s.mu.Lock()
	key := pairKey{projectID, userID}
	m, ok := s.active[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if m.Role == role.Owner && r != role.Owner && s.activeOwnerCountLocked(projectID) == 1 {
		s.mu.Unlock()
		return ErrLastOwner
	}
	m.Role = r
	s.mu.Unlock()

	s.opts.notify(ctx, projectID, userID)
	return nil
}

// Archive soft-removes the pair's active membership.
func (s *MemoryStore) Archive(ctx context.Context, projectID, userID uuid.UUID) error {
	s.mu.Lock()
	key := pairKey{projectID, userID}
	m, ok := s.active[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if m.Role == role.Owner && s.activeOwnerCountLocked(projectID) == 1 {
		s.mu.Unlock()
		return ErrLastOwner
	}
	now := time.Now().UTC()
	m.ArchivedAt = &now
	delete(s.active, key)
	s.mu.Unlock()

	s.opts.notify(ctx, projectID, userID)
	return nil
}

// ListActive returns all active memberships of the project.
func (s *MemoryStore) ListActive(ctx context.Context, projectID uuid.UUID) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Membership
	for key, m := range s.active {
		if key.projectID == projectID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *MemoryStore) activeOwnerCountLocked(projectID uuid.UUID) int {
	count := 0
	for key, m := range s.active {
		if key.projectID == projectID && m.Role == role.Owner {
			count++
		}
	}
	return count
}
