package device

import "time"

const (
	DefaultName         = "Unnamed Device"
	DefaultAddress      = "Unknown Location"
	DefaultModel        = "Unknown Model"
	DefaultManufacturer = "Unknown Manufacturer"
)

// Draft is a caller-supplied device description. Nil fields were not supplied.
type Draft struct {
	DeviceID            string
	Name                *string
	Type                *string
	Status              *Status
	Location            *Location
	Specifications      *Specifications
	LastOnlineTime      *time.Time
	LastMaintenanceTime *time.Time
	DeploymentDate      *time.Time
	WarrantyExpiryDate  *time.Time
	FirmwareVersion     *string
	MaintenanceCycle    *string
}

func DefaultLocation() Location {
	return Location{Longitude: 0, Latitude: 0, Address: DefaultAddress}
}

func DefaultSpecifications(now time.Time) Specifications {
	return Specifications{
		Model:          DefaultModel,
		Manufacturer:   DefaultManufacturer,
		ProductionDate: now,
	}
}

// Build starts from the default device and overlays every field present in the draft.
// Location and specifications are replaced as whole objects, never merged.
func (dr *Draft) Build(now time.Time) *Device {
	d := &Device{
		DeviceID:       dr.DeviceID,
		Name:           DefaultName,
		Type:           TypeOther,
		Status:         StatusOffline,
		Location:       DefaultLocation(),
		Specifications: DefaultSpecifications(now),
	}

	if dr.Name != nil {
		d.Name = *dr.Name
	}
	if dr.Type != nil {
		d.Type = *dr.Type
	}
	if dr.Status != nil {
		d.Status = *dr.Status
	}
	if dr.Location != nil {
		d.Location = *dr.Location
	}
	if dr.Specifications != nil {
		d.Specifications = *dr.Specifications
	}
	d.LastOnlineTime = cloneTime(dr.LastOnlineTime)
	d.LastMaintenanceTime = cloneTime(dr.LastMaintenanceTime)
	d.DeploymentDate = cloneTime(dr.DeploymentDate)
	d.WarrantyExpiryDate = cloneTime(dr.WarrantyExpiryDate)
	d.FirmwareVersion = cloneString(dr.FirmwareVersion)
	d.MaintenanceCycle = cloneString(dr.MaintenanceCycle)

	return d
}

// Patch is a field-level update. Nil fields are left untouched; DeviceID is not patchable.
type Patch struct {
	Name                *string
	Type                *string
	Status              *Status
	Location            *Location
	Specifications      *Specifications
	LastOnlineTime      *time.Time
	LastMaintenanceTime *time.Time
	DeploymentDate      *time.Time
	WarrantyExpiryDate  *time.Time
	FirmwareVersion     *string
	MaintenanceCycle    *string
}

func (p *Patch) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.Type == nil && p.Status == nil &&
		p.Location == nil && p.Specifications == nil &&
		p.LastOnlineTime == nil && p.LastMaintenanceTime == nil &&
		p.DeploymentDate == nil && p.WarrantyExpiryDate == nil &&
		p.FirmwareVersion == nil && p.MaintenanceCycle == nil)
}

// Apply replaces every present field on d.
func (p *Patch) Apply(d *Device) {
	if p == nil || d == nil {
		return
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.Specifications != nil {
		d.Specifications = *p.Specifications
	}
	if p.LastOnlineTime != nil {
		d.LastOnlineTime = cloneTime(p.LastOnlineTime)
	}
	if p.LastMaintenanceTime != nil {
		d.LastMaintenanceTime = cloneTime(p.LastMaintenanceTime)
	}
	if p.DeploymentDate != nil {
		d.DeploymentDate = cloneTime(p.DeploymentDate)
	}
	if p.WarrantyExpiryDate != nil {
		d.WarrantyExpiryDate = cloneTime(p.WarrantyExpiryDate)
	}
	if p.FirmwareVersion != nil {
		d.FirmwareVersion = cloneString(p.FirmwareVersion)
	}
	if p.MaintenanceCycle != nil {
		d.MaintenanceCycle = cloneString(p.MaintenanceCycle)
	}
}
