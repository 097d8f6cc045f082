package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainDevice "lab-checkout/internal/domain/device"
	"lab-checkout/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoginRepository struct {
	db *DB
}

func NewLoginRepository(db *DB) *LoginRepository {
	return &LoginRepository{db: db}
}

func (r *LoginRepository) Upsert(ctx context.Context, l *domainDevice.Login) error {
	m := &models.LoginModel{
		AssetTag:  l.AssetTag,
		Password:  l.Password,
		PIN:       l.PIN,
		UpdatedAt: time.Now(),
	}
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_tag"}},
			DoUpdates: clause.AssignmentColumns([]string{"password", "pin", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to save device login: %w", err)
	}
	return nil
}

func (r *LoginRepository) Get(ctx context.Context, assetTag string) (*domainDevice.Login, error) {
	var m models.LoginModel
	err := r.db.DB.WithContext(ctx).Where("asset_tag = ?", assetTag).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrLoginNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device login: %w", err)
	}
	return &domainDevice.Login{AssetTag: m.AssetTag, Password: m.Password, PIN: m.PIN}, nil
}

func (r *LoginRepository) List(ctx context.Context) ([]*domainDevice.Login, error) {
	var rows []models.LoginModel
	if err := r.db.DB.WithContext(ctx).Order("asset_tag ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list device logins: %w", err)
	}
	out := make([]*domainDevice.Login, len(rows))
	for i, m := range rows {
		out[i] = &domainDevice.Login{AssetTag: m.AssetTag, Password: m.Password, PIN: m.PIN}
	}
	return out, nil
}
