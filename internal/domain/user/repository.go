package user

import (
	"context"
	"time"
)

// Repository defines the interface for user repository operations
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID string) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	UpdateProfile(ctx context.Context, userID, name string, role Role) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ResetTokenRepository stores password reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	MarkUsed(ctx context.Context, tokenID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionStore tracks live sign-ins so they can be revoked.
type SessionStore interface {
	Create(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
