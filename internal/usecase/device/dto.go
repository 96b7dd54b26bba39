package device

import (
	"time"

	domainDevice "iot-device-manager/internal/domain/device"

	"github.com/google/uuid"
)

type LocationRequest struct {
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Address   string   `json:"address" validate:"required,max=200"`
}

type SpecificationsRequest struct {
	Model                string            `json:"model" validate:"required,max=50"`
	Manufacturer         string            `json:"manufacturer" validate:"required,max=100"`
	ProductionDate       *time.Time        `json:"productionDate" validate:"required,notfuture"`
	Protocol             string            `json:"protocol" validate:"omitempty,max=50"`
	PowerSupply          string            `json:"powerSupply" validate:"omitempty,max=100"`
	IPRating             string            `json:"ipRating" validate:"omitempty,max=20"`
	OperatingTemperature string            `json:"operatingTemperature" validate:"omitempty,max=100"`
	Dimensions           string            `json:"dimensions" validate:"omitempty,max=100"`
	MeasurementRange     string            `json:"measurementRange" validate:"omitempty,max=100"`
	Accuracy             string            `json:"accuracy" validate:"omitempty,max=100"`
	ResponseTime         string            `json:"responseTime" validate:"omitempty,max=100"`
	Resolution           string            `json:"resolution" validate:"omitempty,max=100"`
	FieldOfView          string            `json:"fieldOfView" validate:"omitempty,max=100"`
	NightVision          string            `json:"nightVision" validate:"omitempty,max=100"`
	StorageSupport       string            `json:"storageSupport" validate:"omitempty,max=100"`
	Attributes           map[string]string `json:"attributes" validate:"omitempty,max=50,dive,keys,max=50,endkeys,max=500"`
}

type CreateDeviceRequest struct {
	DeviceID            string                 `json:"deviceId" validate:"required,max=50,device_id"`
	Name                *string                `json:"name" validate:"omitempty,max=100"`
	Type                *string                `json:"type" validate:"omitempty,device_type"`
	Status              *string                `json:"status" validate:"omitempty,device_status"`
	Location            *LocationRequest       `json:"location" validate:"omitempty"`
	Specifications      *SpecificationsRequest `json:"specifications" validate:"omitempty"`
	LastOnlineTime      *time.Time             `json:"lastOnlineTime"`
	LastMaintenanceTime *time.Time             `json:"lastMaintenanceTime"`
	DeploymentDate      *time.Time             `json:"deploymentDate"`
	WarrantyExpiryDate  *time.Time             `json:"warrantyExpiryDate"`
	FirmwareVersion     *string                `json:"firmwareVersion" validate:"omitempty,max=100"`
	MaintenanceCycle    *string                `json:"maintenanceCycle" validate:"omitempty,max=100"`
}

type BatchCreateRequest struct {
	Devices []CreateDeviceRequest `json:"devices" validate:"required,min=1,max=1000,dive"`
}

// UpdateDeviceRequest carries the patchable fields. deviceId is not among them.
type UpdateDeviceRequest struct {
	Name                *string                `json:"name" validate:"omitempty,max=100"`
	Type                *string                `json:"type" validate:"omitempty,device_type"`
	Status              *string                `json:"status" validate:"omitempty,device_status"`
	Location            *LocationRequest       `json:"location" validate:"omitempty"`
	Specifications      *SpecificationsRequest `json:"specifications" validate:"omitempty"`
	LastOnlineTime      *time.Time             `json:"lastOnlineTime"`
	LastMaintenanceTime *time.Time             `json:"lastMaintenanceTime"`
	DeploymentDate      *time.Time             `json:"deploymentDate"`
	WarrantyExpiryDate  *time.Time             `json:"warrantyExpiryDate"`
	FirmwareVersion     *string                `json:"firmwareVersion" validate:"omitempty,max=100"`
	MaintenanceCycle    *string                `json:"maintenanceCycle" validate:"omitempty,max=100"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,device_status"`
}

// DeviceFilterRequest is bound from the query string. Zero page/limit mean "use the default".
type DeviceFilterRequest struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Type     string `form:"type" validate:"omitempty,max=50"`
	Status   string `form:"status" validate:"omitempty,device_status"`
	Location string `form:"location" validate:"omitempty,max=200"`
	Search   string `form:"search" validate:"omitempty,max=100"`
}

type LocationResponse struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Address   string  `json:"address"`
}

type DeviceResponse struct {
	ID                  uuid.UUID                   `json:"id"`
	DeviceID            string                      `json:"deviceId"`
	Name                string                      `json:"name"`
	Type                string                      `json:"type"`
	Status              domainDevice.Status         `json:"status"`
	Location            LocationResponse            `json:"location"`
	Specifications      domainDevice.Specifications `json:"specifications"`
	LastOnlineTime      *time.Time                  `json:"lastOnlineTime,omitempty"`
	LastMaintenanceTime *time.Time                  `json:"lastMaintenanceTime,omitempty"`
	DeploymentDate      *time.Time                  `json:"deploymentDate,omitempty"`
	WarrantyExpiryDate  *time.Time                  `json:"warrantyExpiryDate,omitempty"`
	FirmwareVersion     *string                     `json:"firmwareVersion,omitempty"`
	MaintenanceCycle    *string                     `json:"maintenanceCycle,omitempty"`
	CreatedAt           time.Time                   `json:"createdAt"`
	UpdatedAt           time.Time                   `json:"updatedAt"`
}

type DeviceListResponse struct {
	Devices    []DeviceResponse `json:"devices"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type StatisticsResponse struct {
	Total      int64            `json:"total"`
	ByType     map[string]int64 `json:"byType"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByLocation map[string]int64 `json:"byLocation"`
}

// DeleteResponse reports whether a row was removed.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (r *LocationRequest) toDomain() *domainDevice.Location {
	if r == nil {
		return nil
	}
	loc := &domainDevice.Location{Address: r.Address}
	if r.Longitude != nil {
		loc.Longitude = *r.Longitude
	}
	if r.Latitude != nil {
		loc.Latitude = *r.Latitude
	}
	return loc
}

func (r *SpecificationsRequest) toDomain() *domainDevice.Specifications {
	if r == nil {
		return nil
	}
	spec := &domainDevice.Specifications{
		Model:                r.Model,
		Manufacturer:         r.Manufacturer,
		Protocol:             r.Protocol,
		PowerSupply:          r.PowerSupply,
		IPRating:             r.IPRating,
		OperatingTemperature: r.OperatingTemperature,
		Dimensions:           r.Dimensions,
		MeasurementRange:     r.MeasurementRange,
		Accuracy:             r.Accuracy,
		ResponseTime:         r.ResponseTime,
		Resolution:           r.Resolution,
		FieldOfView:          r.FieldOfView,
		NightVision:          r.NightVision,
		StorageSupport:       r.StorageSupport,
	}
	if r.ProductionDate != nil {
		spec.ProductionDate = *r.ProductionDate
	}
	if len(r.Attributes) > 0 {
		spec.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			spec.Attributes[k] = v
		}
	}
	return spec
}

// ToDraft converts a validated create request into a domain draft.
func (r *CreateDeviceRequest) ToDraft() *domainDevice.Draft {
	draft := &domainDevice.Draft{
		DeviceID:            r.DeviceID,
		Name:                r.Name,
		Type:                r.Type,
		Location:            r.Location.toDomain(),
		Specifications:      r.Specifications.toDomain(),
		LastOnlineTime:      r.LastOnlineTime,
		LastMaintenanceTime: r.LastMaintenanceTime,
		DeploymentDate:      r.DeploymentDate,
		WarrantyExpiryDate:  r.WarrantyExpiryDate,
		FirmwareVersion:     r.FirmwareVersion,
		MaintenanceCycle:    r.MaintenanceCycle,
	}
	if r.Status != nil {
		status := domainDevice.Status(*r.Status)
		draft.Status = &status
	}
	return draft
}

// ToPatch converts a validated update request into a domain patch.
func (r *UpdateDeviceRequest) ToPatch() *domainDevice.Patch {
	patch := &domainDevice.Patch{
		Name:                r.Name,
		Type:                r.Type,
		Location:            r.Location.toDomain(),
		Specifications:      r.Specifications.toDomain(),
		LastOnlineTime:      r.LastOnlineTime,
		LastMaintenanceTime: r.LastMaintenanceTime,
		DeploymentDate:      r.DeploymentDate,
		WarrantyExpiryDate:  r.WarrantyExpiryDate,
		FirmwareVersion:     r.FirmwareVersion,
		MaintenanceCycle:    r.MaintenanceCycle,
	}
	if r.Status != nil {
		status := domainDevice.Status(*r.Status)
		patch.Status = &status
	}
	return patch
}

// ToDomainFilter converts the query into a normalized domain filter.
func (r *DeviceFilterRequest) ToDomainFilter() *domainDevice.Filter {
	f := &domainDevice.Filter{
		Type:    r.Type,
		Status:  r.Status,
		Address: r.Location,
		Search:  r.Search,
		Page:    r.Page,
		Limit:   r.Limit,
	}
	f.Normalize()
	return f
}

func ToDeviceResponse(d *domainDevice.Device) *DeviceResponse {
	return &DeviceResponse{
		ID:       d.ID,
		DeviceID: d.DeviceID,
		Name:     d.Name,
		Type:     d.Type,
		Status:   d.Status,
		Location: LocationResponse{
			Longitude: d.Location.Longitude,
			Latitude:  d.Location.Latitude,
			Address:   d.Location.Address,
		},
		Specifications:      d.Specifications,
		LastOnlineTime:      d.LastOnlineTime,
		LastMaintenanceTime: d.LastMaintenanceTime,
		DeploymentDate:      d.DeploymentDate,
		WarrantyExpiryDate:  d.WarrantyExpiryDate,
		FirmwareVersion:     d.FirmwareVersion,
		MaintenanceCycle:    d.MaintenanceCycle,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func ToStatisticsResponse(s *domainDevice.Statistics) *StatisticsResponse {
	return &StatisticsResponse{
		Total:      s.Total,
		ByType:     s.ByType,
		ByStatus:   s.ByStatus,
		ByLocation: s.ByLocation,
	}
}
