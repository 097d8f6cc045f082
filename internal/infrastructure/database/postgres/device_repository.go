package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainDevice "lab-checkout/internal/domain/device"
	"lab-checkout/internal/infrastructure/database/postgres/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DeviceRepository implements domainDevice.Repository
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt

	dbModel := toDeviceModel(d)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if isDuplicateKey(err) {
			return domainDevice.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	return nil
}

func (r *DeviceRepository) GetByAssetTag(ctx context.Context, assetTag string) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("asset_tag = ?", assetTag).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) List(ctx context.Context, filter *domainDevice.Filter) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel

	db := r.db.DB.WithContext(ctx).Model(&models.DeviceModel{})
	if filter != nil {
		if len(filter.Statuses) > 0 {
			statuses := make([]string, len(filter.Statuses))
			for i, s := range filter.Statuses {
				statuses[i] = string(s)
			}
			db = db.Where("reservation_status IN ?", statuses)
		}
		if filter.ReservationUser != nil {
			db = db.Where("reservation_user = ?", *filter.ReservationUser)
		}
	}

	if err := db.Order("asset_tag ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	devices := make([]*domainDevice.Device, len(dbModels))
	for i := range dbModels {
		devices[i] = toDeviceEntity(&dbModels[i])
	}
	return devices, nil
}

// Update overwrites every editable column of the device.
func (r *DeviceRepository) Update(ctx context.Context, d *domainDevice.Device) error {
	d.UpdatedAt = time.Now()
	m := toDeviceModel(d)

	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("asset_tag = ?", d.AssetTag).
		Updates(map[string]interface{}{
			"hostname":           m.Hostname,
			"serial_number":      m.SerialNumber,
			"manufacturer":       m.Manufacturer,
			"model":              m.Model,
			"cpu":                m.CPU,
			"memory":             m.Memory,
			"disks":              m.Disks,
			"gpus":               m.GPUs,
			"notes":              m.Notes,
			"reservation_status": m.Status,
			"reservation_begin":  m.ReservationBegin,
			"reservation_end":    m.ReservationEnd,
			"reservation_user":   m.ReservationUser,
			"reservation_name":   m.ReservationName,
			"updated_at":         d.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}
	return nil
}

func (r *DeviceRepository) updateFields(ctx context.Context, assetTag string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("asset_tag = ?", assetTag).
		Updates(fields)

	if result.Error != nil {
		return fmt.Errorf("failed to update device %s: %w", assetTag, result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}
	return nil
}

func (r *DeviceRepository) SetReservation(ctx context.Context, assetTag string, res domainDevice.Reservation) error {
	return r.updateFields(ctx, assetTag, map[string]interface{}{
		"reservation_begin":  res.Begin,
		"reservation_end":    res.End,
		"reservation_user":   res.UserID,
		"reservation_name":   res.UserName,
		"reservation_status": string(domainDevice.StatusInUse),
	})
}

func (r *DeviceRepository) SetReservationEnd(ctx context.Context, assetTag string, end time.Time) error {
	return r.updateFields(ctx, assetTag, map[string]interface{}{
		"reservation_end": end,
	})
}

func (r *DeviceRepository) ClearReservation(ctx context.Context, assetTag string) error {
	return r.updateFields(ctx, assetTag, map[string]interface{}{
		"reservation_begin":  nil,
		"reservation_end":    nil,
		"reservation_user":   nil,
		"reservation_name":   nil,
		"reservation_status": string(domainDevice.StatusAvailable),
	})
}

func (r *DeviceRepository) SetReservationName(ctx context.Context, assetTag, name string) error {
	return r.updateFields(ctx, assetTag, map[string]interface{}{
		"reservation_name": name,
	})
}

// Helper functions to convert between domain entities and database models

func toDeviceModel(d *domainDevice.Device) *models.DeviceModel {
	return &models.DeviceModel{
		AssetTag:         d.AssetTag,
		Hostname:         d.Hostname,
		SerialNumber:     d.SerialNumber,
		Manufacturer:     d.Manufacturer,
		Model:            d.Model,
		CPU:              d.CPU,
		Memory:           d.Memory,
		Disks:            datatypesSlice(d.Disks),
		GPUs:             datatypesSlice(d.GPUs),
		Notes:            d.Notes,
		Status:           string(d.Status),
		ReservationBegin: d.ReservationBegin,
		ReservationEnd:   d.ReservationEnd,
		ReservationUser:  d.ReservationUser,
		ReservationName:  d.ReservationName,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		AssetTag:         m.AssetTag,
		Hostname:         m.Hostname,
		SerialNumber:     m.SerialNumber,
		Manufacturer:     m.Manufacturer,
		Model:            m.Model,
		CPU:              m.CPU,
		Memory:           m.Memory,
		Disks:            []string(m.Disks),
		GPUs:             []string(m.GPUs),
		Notes:            m.Notes,
		Status:           domainDevice.Status(m.Status),
		ReservationBegin: m.ReservationBegin,
		ReservationEnd:   m.ReservationEnd,
		ReservationUser:  m.ReservationUser,
		ReservationName:  m.ReservationName,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func datatypesSlice(items []string) datatypes.JSONSlice[string] {
	if items == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](items)
}
