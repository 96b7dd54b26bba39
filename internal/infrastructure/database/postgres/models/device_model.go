package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domainDevice "iot-device-manager/internal/domain/device"
)

// DeviceModel represents the database model for Devices.
type DeviceModel struct {
	ID                  uuid.UUID                                        `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DeviceID            string                                           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                string                                           `gorm:"type:varchar(100);not null"`
	Type                string                                           `gorm:"type:varchar(50);not null;index;index:idx_devices_type_status,priority:1"`
	Status              string                                           `gorm:"type:varchar(20);not null;default:'offline';index;index:idx_devices_type_status,priority:2"`
	Location            LocationModel                                    `gorm:"embedded;embeddedPrefix:location_"`
	Specifications      datatypes.JSONType[domainDevice.Specifications] `gorm:"type:jsonb;not null"`
	LastOnlineTime      *time.Time                                       `gorm:"type:timestamptz"`
	LastMaintenanceTime *time.Time                                       `gorm:"type:timestamptz"`
	DeploymentDate      *time.Time                                       `gorm:"type:timestamptz"`
	WarrantyExpiryDate  *time.Time                                       `gorm:"type:timestamptz;index"`
	FirmwareVersion     *string                                          `gorm:"type:varchar(100)"`
	MaintenanceCycle    *string                                          `gorm:"type:varchar(100)"`
	CreatedAt           time.Time                                        `gorm:"not null;index"`
	UpdatedAt           time.Time                                        `gorm:"not null;index"`
}

// LocationModel is embedded into devices as location_* columns.
type LocationModel struct {
	Longitude float64 `gorm:"type:double precision;not null;default:0"`
	Latitude  float64 `gorm:"type:double precision;not null;default:0"`
	Address   string  `gorm:"type:varchar(200);not null;index"`
}

func (DeviceModel) TableName() string {
	return "devices"
}
