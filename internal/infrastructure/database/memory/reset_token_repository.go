package memory

import (
	"context"
	"sync"
	"time"

	"lab-checkout/internal/domain/user"

	"github.com/google/uuid"
)

type ResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]user.PasswordResetToken
}

func NewResetTokenRepository() *ResetTokenRepository {
	return &ResetTokenRepository{tokens: make(map[string]user.PasswordResetToken)}
}

func (r *ResetTokenRepository) Create(_ context.Context, t *user.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	r.tokens[t.Token] = *t
	return nil
}

func (r *ResetTokenRepository) GetByToken(_ context.Context, token string) (*user.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, user.ErrTokenInvalid
	}
	return &t, nil
}

func (r *ResetTokenRepository) MarkUsed(_ context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.ID == tokenID {
			t.Used = true
			r.tokens[k] = t
			return nil
		}
	}
	return user.ErrTokenInvalid
}

func (r *ResetTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(before) || t.Used {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}
