package resolver

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

// ProjectDirectory answers the single read-only question this engine asks
// of the host's data layer: which project owns an entity. Hosts back it
// with their own structure tables.
type ProjectDirectory interface {
	// OwningProject returns the ID of the project the entity belongs to.
	// Returns ErrEntityNotFound for an unknown entity.
	OwningProject(ctx context.Context, ref entity.Ref) (uuid.UUID, error)
}

// DirectoryFunc adapts a function to the ProjectDirectory interface.
type DirectoryFunc func(ctx context.Context, ref entity.Ref) (uuid.UUID, error)

// OwningProject calls the function.
func (f DirectoryFunc) OwningProject(ctx context.Context, ref entity.Ref) (uuid.UUID, error) {
	return f(ctx, ref)
}

// MemoryDirectory is an in-memory ProjectDirectory for tests and hosts
// that keep entity structure in process. Project references resolve to
// themselves without registration.
type MemoryDirectory struct {
	mu     sync.RWMutex
	owners map[entity.Ref]uuid.UUID
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{owners: make(map[entity.Ref]uuid.UUID)}
}

// Register records the owning project of an entity.
func (d *MemoryDirectory) Register(ref entity.Ref, projectID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.owners[ref] = projectID
}

// OwningProject returns the project the entity was registered under.
func (d *MemoryDirectory) OwningProject(ctx context.Context, ref entity.Ref) (uuid.UUID, error) {
	if ref.IsProject() {
		return ref.ID, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	projectID, ok := d.owners[ref]
	if !ok {
		return uuid.Nil, ErrEntityNotFound
	}
	return projectID, nil
}
