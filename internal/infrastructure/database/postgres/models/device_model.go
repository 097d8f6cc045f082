package models

import (
	"time"

	"gorm.io/datatypes"
)

// DeviceModel represents the database model for computers. The asset tag is
// the primary key.
type DeviceModel struct {
	AssetTag         string                      `gorm:"type:varchar(64);primaryKey"`
	Hostname         string                      `gorm:"type:varchar(255)"`
	SerialNumber     string                      `gorm:"type:varchar(255)"`
	Manufacturer     string                      `gorm:"type:varchar(255)"`
	Model            string                      `gorm:"type:varchar(255)"`
	CPU              string                      `gorm:"column:cpu;type:varchar(255)"`
	Memory           string                      `gorm:"type:varchar(255)"`
	Disks            datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	GPUs             datatypes.JSONSlice[string] `gorm:"column:gpus;type:jsonb"`
	Notes            string                      `gorm:"type:text"`
	Status           string                      `gorm:"column:reservation_status;type:varchar(50);not null;default:'available';index"`
	ReservationBegin *time.Time                  `gorm:"type:timestamptz"`
	ReservationEnd   *time.Time                  `gorm:"type:timestamptz"`
	ReservationUser  *string                     `gorm:"type:varchar(64);index"`
	ReservationName  *string                     `gorm:"type:varchar(255)"`
	CreatedAt        time.Time                   `gorm:"not null"`
	UpdatedAt        time.Time                   `gorm:"not null"`
}

func (DeviceModel) TableName() string {
	return "computers"
}

// LoginModel holds device credentials, one row per asset tag.
type LoginModel struct {
	AssetTag  string    `gorm:"type:varchar(64);primaryKey"`
	Password  string    `gorm:"type:varchar(255)"`
	PIN       string    `gorm:"column:pin;type:varchar(64)"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (LoginModel) TableName() string {
	return "logins"
}

type HistoryModel struct {
	ID               string    `gorm:"type:uuid;primaryKey"`
	AssetTag         string    `gorm:"type:varchar(64);not null;index"`
	ReservationUser  string    `gorm:"type:varchar(64);not null;index"`
	ReservationBegin time.Time `gorm:"type:timestamptz;not null"`
	ReservationEnd   time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt        time.Time `gorm:"not null"`
}

func (HistoryModel) TableName() string {
	return "reservation_history"
}
