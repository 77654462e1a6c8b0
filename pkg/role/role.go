package role

// Role is a position in the fixed authorization lattice. The order is total:
// None < Viewer < Commenter < Editor < Owner. None is the zero value so an
// uninitialized role never reads as a capability.
type Role int

const (
	None Role = iota
	Viewer
	Commenter
	Editor
	Owner
)

var names = map[Role]string{
	None:      "none",
	Viewer:    "viewer",
	Commenter: "commenter",
	Editor:    "editor",
	Owner:     "owner",
}

// Parse converts a storage or wire form back into a Role.
func Parse(s string) (Role, error) {
	for r, name := range names {
		if name == s {
			return r, nil
		}
	}
	return None, ErrInvalidRole
}

// Valid reports whether r is one of the defined lattice members.
func (r Role) Valid() bool {
	_, ok := names[r]
	return ok
}

func (r Role) String() string {
	if name, ok := names[r]; ok {
		return name
	}
	return "invalid"
}

// Implies reports whether r grants everything b grants. Under the total
// order this is plain comparison; there are no incomparable pairs.
func (r Role) Implies(b Role) bool {
	return r >= b
}

// Max returns the higher of two roles.
func Max(a, b Role) Role {
	if a >= b {
		return a
	}
	return b
}

// Min returns the lower of two roles.
func Min(a, b Role) Role {
	if a <= b {
		return a
	}
	return b
}

// Capabilities is the concrete set of actions a role allows. Derived from
// the lattice position alone, never stored.
type Capabilities struct {
	CanView    bool `json:"can_view"`
	CanComment bool `json:"can_comment"`
	CanEdit    bool `json:"can_edit"`
	CanManage  bool `json:"can_manage"`
}

// Capabilities derives the action booleans for r.
func (r Role) Capabilities() Capabilities {
	return Capabilities{
		CanView:    r.Implies(Viewer),
		CanComment: r.Implies(Commenter),
		CanEdit:    r.Implies(Editor),
		CanManage:  r.Implies(Owner),
	}
}

// MarshalText implements encoding.TextMarshaler so roles serialize to their
// string form in JSON payloads and log attributes.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
