package resolver

import (
	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/grant"
	"github.com/SharedMindsApp/accesskit/pkg/role"
)

// SourceKind names an authority that contributed to a resolution.
type SourceKind string

const (
	// SourceProjectRole is the user's project membership role, which acts
	// as both the gate and the ceiling of every resolution.
	SourceProjectRole SourceKind = "project_role"

	// SourceCreatorRight is the implicit Editor-equivalent right of the
	// entity's creator.
	SourceCreatorRight SourceKind = "creator_right"

	// SourceGrant is an explicit entity grant, direct or via a group the
	// user is an active member of.
	SourceGrant SourceKind = "grant"
)

// Source records one contributing authority. Sources are informational:
// they explain the decision but never alter it.
type Source struct {
	Kind    SourceKind     `json:"kind"`
	Role    role.Role      `json:"role"`
	GrantID *uuid.UUID     `json:"grant_id,omitempty"`
	Subject *grant.Subject `json:"subject,omitempty"`
}

// Resolution is the effective permission of one user on one entity.
// Derived on demand, optionally cached, never independently mutated.
type Resolution struct {
	Entity    entity.Ref `json:"entity"`
	ProjectID uuid.UUID  `json:"project_id"`
	Role      role.Role  `json:"role"`
	role.Capabilities
	Sources []Source `json:"sources,omitempty"`
}

func newResolution(ref entity.Ref, projectID uuid.UUID, r role.Role, sources []Source) Resolution {
	return Resolution{
		Entity:       ref,
		ProjectID:    projectID,
		Role:         r,
		Capabilities: r.Capabilities(),
		Sources:      sources,
	}
}
