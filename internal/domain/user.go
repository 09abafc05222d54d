package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of actor kinds. The zero value is not a valid role.
type Role uint8

const (
	RoleClient Role = iota + 1
	RoleAdmin
)

// ParseRole decodes the persisted role text.
func ParseRole(s string) (Role, error) {
	switch s {
	case "client":
		return RoleClient, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

func (r Role) MarshalText() ([]byte, error) {
	switch r {
	case RoleClient, RoleAdmin:
		return []byte(r.String()), nil
	default:
		return nil, fmt.Errorf("cannot encode %s", r)
	}
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is a registered account, either a client or an administrator.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Company      *string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the session projection of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
