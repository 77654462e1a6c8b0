package entity

import (
	"fmt"

	"github.com/google/uuid"
)

// Type identifies the kind of permission-bearing object a reference points
// at. Projects are the top-level scoping boundary; everything else lives
// under exactly one project.
type Type string

const (
	TypeProject  Type = "project"
	TypeTrack    Type = "track"
	TypeSubtrack Type = "subtrack"
)

// Ref identifies a single permission-bearing object.
type Ref struct {
	Type Type      `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// NewRef creates a reference to the given object.
func NewRef(t Type, id uuid.UUID) Ref {
	return Ref{Type: t, ID: id}
}

// ProjectRef creates a reference to a project itself. Projects are valid
// resolution targets: resolving one yields the caller's project role.
func ProjectRef(projectID uuid.UUID) Ref {
	return Ref{Type: TypeProject, ID: projectID}
}

// IsProject reports whether the reference points at a project rather than a
// nested entity.
func (r Ref) IsProject() bool {
	return r.Type == TypeProject
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.Type == "" && r.ID == uuid.Nil
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}
