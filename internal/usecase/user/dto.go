package user

import (
	"time"

	domainUser "lab-checkout/internal/domain/user"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	// Redirect is the page the caller was sent away from, if any.
	Redirect string `json:"redirect"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type UpdateUserRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
	Role string `json:"role" validate:"required,oneof=admin faculty student external"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domainUser.Role `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

type AuthResponse struct {
	User      *UserResponse `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt int64         `json:"expires_at"`
	// Redirect is where the client should navigate after signing in.
	Redirect string `json:"redirect"`
}

type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domainUser.Role `json:"role"`
	RoleTitle string          `json:"role_title"`
}

type UserRow struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Role    domainUser.Role `json:"role"`
	CanEdit bool            `json:"can_edit"`
}

type UserGroup struct {
	Role  domainUser.Role `json:"role"`
	Title string          `json:"title"`
	Users []*UserRow      `json:"users"`
}

type UserListResponse struct {
	Groups  []*UserGroup `json:"groups"`
	CanEdit bool         `json:"can_edit"`
}

type EditUserResponse struct {
	User          *UserResponse     `json:"user"`
	Roles         []domainUser.Role `json:"roles"`
	CanChangeRole bool              `json:"can_change_role"`
}

// FanOutOutcome is the result of rewriting one device's cached occupant name.
type FanOutOutcome struct {
	AssetTag string `json:"asset_tag"`
	Updated  bool   `json:"updated"`
	Error    string `json:"error,omitempty"`
}

type FanOutResult struct {
	Matched  int              `json:"matched"`
	Updated  int              `json:"updated"`
	Failed   int              `json:"failed"`
	Outcomes []*FanOutOutcome `json:"outcomes"`
}

type UpdateUserResponse struct {
	User   *UserResponse `json:"user"`
	FanOut *FanOutResult `json:"fan_out"`
}

func ToUserResponse(u *domainUser.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// RoleTitle is the heading used for a role's group of accounts.
func RoleTitle(r domainUser.Role) string {
	switch r {
	case domainUser.RoleAdmin:
		return "Administrators"
	case domainUser.RoleFaculty:
		return "Faculty"
	case domainUser.RoleStudent:
		return "Students"
	case domainUser.RoleExternal:
		return "External Users"
	}
	return string(r)
}
