package creator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

type rightKey struct {
	ref       entity.Ref
	creatorID uuid.UUID
}

// MemoryStore is an in-memory Store for tests and single-process hosts.
type MemoryStore struct {
	mu     sync.RWMutex
	rights map[rightKey]*Right
	opts   options
}

// NewMemoryStore creates an empty in-memory creator rights store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{rights: make(map[rightKey]*Right)}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// EnsureCreated records an active right for a freshly created entity.
func (s *MemoryStore) EnsureCreated(ctx context.Context, ref entity.Ref, creatorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rightKey{ref, creatorID}
	if _, exists := s.rights[key]; exists {
		return nil
	}
	s.rights[key] = &Right{
		Entity:    ref,
		CreatorID: creatorID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// IsActive reports whether the user holds an active creator right.
func (s *MemoryStore) IsActive(ctx context.Context, ref entity.Ref, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.rights[rightKey{ref, userID}]
	return exists && r.Active, nil
}

// Revoke deactivates the creator's right.
func (s *MemoryStore) Revoke(ctx context.Context, ref entity.Ref, creatorID, revokedBy uuid.UUID) error {
	s.mu.Lock()
	r, exists := s.rights[rightKey{ref, creatorID}]
	if !exists {
		s.mu.Unlock()
		return ErrNotFound
	}
	if !r.Active {
		s.mu.Unlock()
		return nil
	}
	now := time.Now().UTC()
	r.Active = false
	r.RevokedAt = &now
	r.RevokedBy = &revokedBy
	s.mu.Unlock()

	s.opts.notify(ctx, ref)
	return nil
}

// Restore reactivates a revoked right.
func (s *MemoryStore) Restore(ctx context.Context, ref entity.Ref, creatorID, restoredBy uuid.UUID) error {
	s.mu.Lock()
	r, exists := s.rights[rightKey{ref, creatorID}]
	if !exists {
		s.mu.Unlock()
		return ErrNotFound
	}
	if r.Active {
		s.mu.Unlock()
		return nil
	}
	now := time.Now().UTC()
	r.Active = true
	r.RestoredAt = &now
	r.RestoredBy = &restoredBy
	s.mu.Unlock()

	s.opts.notify(ctx, ref)
	return nil
}

// Get returns the full record for audit purposes.
func (s *MemoryStore) Get(ctx context.Context, ref entity.Ref, creatorID uuid.UUID) (Right, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.rights[rightKey{ref, creatorID}]
	if !exists {
		return Right{}, ErrNotFound
	}
	return *r, nil
}
