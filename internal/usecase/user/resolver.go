package user

import (
	"context"
	"errors"
	"fmt"

	domainUser "lab-checkout/internal/domain/user"
)

// Resolver turns an authenticated principal into the viewer a page works
// with.
type Resolver struct {
	users domainUser.Repository
}

func NewResolver(users domainUser.Repository) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns nil for a nil principal or one whose account no longer
// exists. A stored role outside the known set is an error.
func (r *Resolver) Resolve(ctx context.Context, p *domainUser.Principal) (*domainUser.Viewer, error) {
	if p == nil {
		return nil, nil
	}

	u, err := r.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %q: %w", p.UserID, err)
	}

	role, err := domainUser.ParseRole(string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", u.ID, err)
	}

	return &domainUser.Viewer{ID: u.ID, Name: u.Name, Email: u.Email, Role: role}, nil
}
