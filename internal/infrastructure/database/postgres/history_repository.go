package postgres

import (
	"context"
	"fmt"
	"time"

	domainDevice "lab-checkout/internal/domain/device"
	"lab-checkout/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
)

// HistoryRepository is append-only; rows are never updated.
type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, h *domainDevice.History) error {
	h.ID = uuid.NewString()
	h.CreatedAt = time.Now()

	m := &models.HistoryModel{
		ID:               h.ID,
		AssetTag:         h.AssetTag,
		ReservationUser:  h.UserID,
		ReservationBegin: h.ReservationBegin,
		ReservationEnd:   h.ReservationEnd,
		CreatedAt:        h.CreatedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to append reservation history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByAssetTag(ctx context.Context, assetTag string) ([]*domainDevice.History, error) {
	var rows []models.HistoryModel
	err := r.db.DB.WithContext(ctx).
		Where("asset_tag = ?", assetTag).
		Order("reservation_end ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservation history: %w", err)
	}
	return toHistoryEntities(rows), nil
}

func (r *HistoryRepository) List(ctx context.Context) ([]*domainDevice.History, error) {
	var rows []models.HistoryModel
	if err := r.db.DB.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservation history: %w", err)
	}
	return toHistoryEntities(rows), nil
}

func toHistoryEntities(rows []models.HistoryModel) []*domainDevice.History {
	out := make([]*domainDevice.History, len(rows))
	for i, m := range rows {
		out[i] = &domainDevice.History{
			ID:               m.ID,
			AssetTag:         m.AssetTag,
			UserID:           m.ReservationUser,
			ReservationBegin: m.ReservationBegin,
			ReservationEnd:   m.ReservationEnd,
			CreatedAt:        m.CreatedAt,
		}
	}
	return out
}
