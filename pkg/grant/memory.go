package grant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

type subjectKey struct {
	ref     entity.Ref
	subject Subject
}

// MemoryStore is an in-memory Store for tests and single-process hosts.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[uuid.UUID]*Grant
	active map[subjectKey]uuid.UUID
	opts   options
}

// NewMemoryStore creates an empty in-memory grant store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		rows:   make(map[uuid.UUID]*Grant),
		active: make(map[subjectKey]uuid.UUID),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// Grant creates an active grant for the (entity, subject) pair.
func (s *MemoryStore) Grant(ctx context.Context, ref entity.Ref, subject Subject, r role.Role, grantedBy uuid.UUID) (uuid.UUID, error) {
	if !r.Valid() || r == role.None {
		return uuid.Nil, ErrInvalidRole
	}
	if subject.Type != SubjectUser && subject.Type != SubjectGroup {
		return uuid.Nil, ErrInvalidSubject
	}

	s.mu.Lock()
	key := subjectKey{ref, subject}
	if _, exists := s.active[key]; exists {
		s.mu.Unlock()
		return uuid.Nil, ErrDuplicateActive
	}

	g := &Grant{
		ID:        uuid.New(),
		Entity:    ref,
		Subject:   subject,
		Role:      r,
		GrantedBy: grantedBy,
		GrantedAt: time.Now().UTC(),
	}
	s.rows[g.ID] = g
	s.active[key] = g.ID
	id := g.ID
	s.mu.Unlock()

	s.opts.notify(ctx, ref)
	return id, nil
}

// Revoke marks the grant revoked; a second revoke is a no-op success.
func (s *MemoryStore) Revoke(ctx context.Context, grantID, revokedBy uuid.UUID) error {
	s.mu.Lock()
	g, ok := s.rows[grantID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if g.RevokedAt != nil {
		s.mu.Unlock()
		return nil
	}
	now := time.Now().UTC()
	g.RevokedAt = &now
	g.RevokedBy = &revokedBy
	delete(s.active, subjectKey{g.Entity, g.Subject})
	ref := g.Entity
	s.mu.Unlock()

	s.opts.notify(ctx, ref)
	return nil
}

// ListActive returns all active grants on the entity.
func (s *MemoryStore) ListActive(ctx context.Context, ref entity.Ref) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Grant
	for key, id := range s.active {
		if key.ref == ref {
			out = append(out, *s.rows[id])
		}
	}
	return out, nil
}

// Get returns a grant by ID, revoked or not.
func (s *MemoryStore) Get(ctx context.Context, grantID uuid.UUID) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.rows[grantID]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return *g, nil
}
