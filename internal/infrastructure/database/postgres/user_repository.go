package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domainUser.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	if err := r.db.DB.WithContext(ctx).Create(toUserModel(u)).Error; err != nil {
		if isDuplicateKey(err) {
			return domainUser.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domainUser.User, error) {
	var m models.UserModel
	err := r.db.DB.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUserEntity(&m), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domainUser.User, error) {
	var m models.UserModel
	err := r.db.DB.WithContext(ctx).First(&m, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUserEntity(&m), nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*domainUser.User, error) {
	var rows []models.UserModel
	if err := r.db.DB.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*domainUser.User, len(rows))
	for i := range rows {
		out[i] = toUserEntity(&rows[i])
	}
	return out, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name string, role domainUser.Role) error {
	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"name":       name,
			"role":       string(role),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hashed": passwordHash,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}
	return nil
}

func toUserModel(u *domainUser.User) *models.UserModel {
	return &models.UserModel{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PasswordHashed: u.PasswordHashed,
		Role:           string(u.Role),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// toUserEntity copies the stored role verbatim; an unknown value is left for
// the resolver to reject.
func toUserEntity(m *models.UserModel) *domainUser.User {
	return &domainUser.User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		PasswordHashed: m.PasswordHashed,
		Role:           domainUser.Role(m.Role),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
