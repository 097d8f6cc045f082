package user

import (
	"context"
	"errors"
	"testing"

	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/infrastructure/database/memory"
)

func TestResolver(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	_ = users.Create(ctx, &domainUser.User{ID: "u1", Name: "Ada", Email: "ada@lab.edu", Role: domainUser.RoleFaculty})
	_ = users.Create(ctx, &domainUser.User{ID: "u2", Name: "Bad", Email: "bad@lab.edu", Role: "superuser"})
	r := NewResolver(users)

	v, err := r.Resolve(ctx, nil)
	if v != nil || err != nil {
		t.Fatalf("expected signed-out caller, got %+v (%v)", v, err)
	}

	v, err = r.Resolve(ctx, &domainUser.Principal{UserID: "u1"})
	if err != nil || v.Role != domainUser.RoleFaculty || v.Name != "Ada" {
		t.Fatalf("expected faculty viewer, got %+v (%v)", v, err)
	}

	v, err = r.Resolve(ctx, &domainUser.Principal{UserID: "gone"})
	if v != nil || err != nil {
		t.Fatalf("expected missing account to resolve to nobody, got %+v (%v)", v, err)
	}

	if _, err := r.Resolve(ctx, &domainUser.Principal{UserID: "u2"}); !errors.Is(err, domainUser.ErrInvalidUserRole) {
		t.Fatalf("expected ErrInvalidUserRole, got %v", err)
	}
}
