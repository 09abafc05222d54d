package domain

// Identity is the authenticated actor bound to a session.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity manages requests rather than creating them.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
