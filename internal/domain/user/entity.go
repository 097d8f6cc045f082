package user

import (
	"fmt"
	"time"
)

// User is a lab account. ID is the identity provider's stable user id.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHashed string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleFaculty  Role = "faculty"
	RoleStudent  Role = "student"
	RoleExternal Role = "external"
)

// Roles in display order, most privileged first.
var Roles = []Role{RoleAdmin, RoleFaculty, RoleStudent, RoleExternal}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent, RoleExternal:
		return true
	}
	return false
}

// ParseRole rejects anything outside the four known roles.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserRole, raw)
	}
	return r, nil
}

// Principal is an authenticated identity as reported by the identity
// provider, before any profile lookup.
type Principal struct {
	UserID    string
	SessionID string
}

// Viewer is the resolved caller of a request.
type Viewer struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// PasswordResetToken is a single-use credential mailed by the reset flow.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Session is a live sign-in.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}
