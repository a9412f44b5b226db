package user

import "errors"

// Role controls which dashboard and endpoints a user can reach.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ErrInvalidRole indicates a role outside admin/user.
var ErrInvalidRole = errors.New("role must be one of: admin, user")

// ParseRole converts a wire or config string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (r Role) String() string { return string(r) }

// Summary is the client's read-only copy of a server-owned user.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Ref is a resolved reference to a user embedded in another entity.
// Name and Email are empty when the server only sent an id.
type Ref struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Ref returns the reference form of s.
func (s Summary) Ref() Ref {
	return Ref{ID: s.ID, Name: s.Name, Email: s.Email}
}

// Members filters users down to the ones with the standard user role,
// which are the only valid task assignees.
func Members(users []Summary) []Summary {
	out := make([]Summary, 0, len(users))
	for _, u := range users {
		if u.Role == RoleUser {
			out = append(out, u)
		}
	}
	return out
}
