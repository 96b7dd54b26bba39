package device

import (
	"time"

	"github.com/google/uuid"
)

// Device represents a device entity in the domain
type Device struct {
	ID                  uuid.UUID
	DeviceID            string
	Name                string
	Type                string
	Status              Status
	Location            Location
	Specifications      Specifications
	LastOnlineTime      *time.Time
	LastMaintenanceTime *time.Time
	DeploymentDate      *time.Time
	WarrantyExpiryDate  *time.Time
	FirmwareVersion     *string
	MaintenanceCycle    *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Status represents the connectivity state of a device
type Status string

const (
	StatusOnline      Status = "online"
	StatusOffline     Status = "offline"
	StatusError       Status = "error"
	StatusMaintenance Status = "maintenance"
)

// Statuses lists every known status value.
var Statuses = []Status{StatusOnline, StatusOffline, StatusError, StatusMaintenance}

func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Device types accepted on the wire. The store itself keeps type as an open string.
const (
	TypeSensor     = "sensor"
	TypeCamera     = "camera"
	TypeGateway    = "gateway"
	TypeController = "controller"
	TypeOther      = "other"
)

var Types = []string{TypeSensor, TypeCamera, TypeGateway, TypeController, TypeOther}

type Location struct {
	Longitude float64
	Latitude  float64
	Address   string
}

// Specifications holds the required identity of the hardware plus optional technical fields.
type Specifications struct {
	Model                string            `json:"model"`
	Manufacturer         string            `json:"manufacturer"`
	ProductionDate       time.Time         `json:"productionDate"`
	Protocol             string            `json:"protocol,omitempty"`
	PowerSupply          string            `json:"powerSupply,omitempty"`
	IPRating             string            `json:"ipRating,omitempty"`
	OperatingTemperature string            `json:"operatingTemperature,omitempty"`
	Dimensions           string            `json:"dimensions,omitempty"`
	MeasurementRange     string            `json:"measurementRange,omitempty"`
	Accuracy             string            `json:"accuracy,omitempty"`
	ResponseTime         string            `json:"responseTime,omitempty"`
	Resolution           string            `json:"resolution,omitempty"`
	FieldOfView          string            `json:"fieldOfView,omitempty"`
	NightVision          string            `json:"nightVision,omitempty"`
	StorageSupport       string            `json:"storageSupport,omitempty"`
	Attributes           map[string]string `json:"attributes,omitempty"`
}

// Clone returns a deep copy so callers can hand out devices without sharing pointers.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	c := *d
	c.LastOnlineTime = cloneTime(d.LastOnlineTime)
	c.LastMaintenanceTime = cloneTime(d.LastMaintenanceTime)
	c.DeploymentDate = cloneTime(d.DeploymentDate)
	c.WarrantyExpiryDate = cloneTime(d.WarrantyExpiryDate)
	c.FirmwareVersion = cloneString(d.FirmwareVersion)
	c.MaintenanceCycle = cloneString(d.MaintenanceCycle)
	if d.Specifications.Attributes != nil {
		c.Specifications.Attributes = make(map[string]string, len(d.Specifications.Attributes))
		for k, v := range d.Specifications.Attributes {
			c.Specifications.Attributes[k] = v
		}
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
