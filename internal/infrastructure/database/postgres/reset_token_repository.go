package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResetTokenRepository struct {
	db *DB
}

func NewResetTokenRepository(db *DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, t *domainUser.PasswordResetToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()

	m := &models.PasswordResetTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		CreatedAt: t.CreatedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetByToken returns the token whatever its state; callers check expiry and use.
func (r *ResetTokenRepository) GetByToken(ctx context.Context, token string) (*domainUser.PasswordResetToken, error) {
	var m models.PasswordResetTokenModel
	err := r.db.DB.WithContext(ctx).Where("token = ?", token).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return &domainUser.PasswordResetToken{
		ID:        m.ID,
		UserID:    m.UserID,
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt,
		Used:      m.Used,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, tokenID string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.PasswordResetTokenModel{}).
		Where("id = ?", tokenID).
		Update("used", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark reset token used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrTokenInvalid
	}
	return nil
}

func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("expires_at < ? OR used = true", before).
		Delete(&models.PasswordResetTokenModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
