package identity

import (
	"strings"

	"github.com/estatecrm/backend/internal/domain/shared"
)

// Role is the privilege tier of a principal.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

// CanDelete reports whether the role may delete records. Employees, the
// lowest tier, have no deletion rights.
func (r Role) CanDelete() bool {
	return r == RoleOwner || r == RoleAdmin
}

// User is the authenticated principal. Users are never hard-deleted, only
// soft-removed.
type User struct {
	shared.BaseEntity
	Email   string
	Name    string
	Surname string
	Role    Role
	Enabled bool
	Removed bool
}

// NewUser creates an enabled, non-removed user.
func NewUser(email, name, surname string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_INPUT", "A valid email is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Name is required")
	}
	if !ValidRole(role) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown role "+string(role))
	}
	return &User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		Name:       name,
		Surname:    surname,
		Role:       role,
		Enabled:    true,
		Removed:    false,
	}, nil
}

// CanLogin reports whether the account is active.
func (u *User) CanLogin() bool {
	return u.Enabled && !u.Removed
}

// FullName joins name and surname for display.
func (u *User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}
