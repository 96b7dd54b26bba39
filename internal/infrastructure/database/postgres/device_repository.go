package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"
	"iot-device-manager/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	batchInsertSize   = 500
	pgUniqueViolation = "23505"
)

// groupColumns maps a statistics dimension to the column it groups on.
var groupColumns = map[domainDevice.GroupField]string{
	domainDevice.GroupByType:     "type",
	domainDevice.GroupByStatus:   "status",
	domainDevice.GroupByLocation: "location_address",
}

// DeviceRepository implements domain.Device.Repository interface
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) domainDevice.Repository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	stamp(d, time.Now())

	dbModel := toDeviceModel(d)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if isDuplicateKey(err) {
			return domainDevice.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	d.ID = dbModel.ID
	d.CreatedAt = dbModel.CreatedAt
	d.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *DeviceRepository) CreateBatch(ctx context.Context, devices []*domainDevice.Device) error {
	if len(devices) == 0 {
		return domainDevice.ErrEmptyBatch
	}

	now := time.Now()
	dbModels := make([]*models.DeviceModel, 0, len(devices))
	for _, d := range devices {
		stamp(d, now)
		dbModels = append(dbModels, toDeviceModel(d))
	}

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(dbModels, batchInsertSize).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return domainDevice.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to create devices: %w", err)
	}

	for i, m := range dbModels {
		devices[i].ID = m.ID
		devices[i].CreatedAt = m.CreatedAt
		devices[i].UpdatedAt = m.UpdatedAt
	}

	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domainDevice.Device, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domainDevice.Device, error) {
	return r.first(ctx, "device_id = ?", deviceID)
}

func (r *DeviceRepository) first(ctx context.Context, query string, arg interface{}) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).Where(query, arg).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) Update(ctx context.Context, id uuid.UUID, patch *domainDevice.Patch) (*domainDevice.Device, error) {
	columns := patchColumns(patch)
	if len(columns) == 0 {
		return r.GetByID(ctx, id)
	}
	columns["updated_at"] = time.Now()

	return r.updateColumns(ctx, id, columns)
}

func (r *DeviceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domainDevice.Status, lastOnline *time.Time) (*domainDevice.Device, error) {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"status":           string(status),
		"last_online_time": lastOnline,
		"updated_at":       time.Now(),
	})
}

// updateColumns writes columns to one row and reads the row back in the same statement.
func (r *DeviceRepository) updateColumns(ctx context.Context, id uuid.UUID, columns map[string]interface{}) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	result := r.db.DB.WithContext(ctx).
		Model(&dbModel).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return nil, domainDevice.ErrDeviceAlreadyExists
		}
		return nil, fmt.Errorf("failed to update device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domainDevice.ErrDeviceNotFound
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.DeviceModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

func (r *DeviceRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.DeviceModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete devices: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *DeviceRepository) Find(ctx context.Context, filter *domainDevice.Filter) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel
	if err := r.findQuery(r.db.DB.WithContext(ctx), filter).Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	devices := make([]*domainDevice.Device, 0, len(dbModels))
	for i := range dbModels {
		devices = append(devices, toDeviceEntity(&dbModels[i]))
	}

	return devices, nil
}

func (r *DeviceRepository) findQuery(tx *gorm.DB, filter *domainDevice.Filter) *gorm.DB {
	query := applyFilter(tx.Model(&models.DeviceModel{}), filter).
		Order("created_at ASC, id ASC")
	if filter != nil && filter.Limit > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit)
	}
	return query
}

func (r *DeviceRepository) Count(ctx context.Context, filter *domainDevice.Filter) (int64, error) {
	var total int64
	err := applyFilter(r.db.DB.WithContext(ctx).Model(&models.DeviceModel{}), filter).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}

	return total, nil
}

func (r *DeviceRepository) CountBy(ctx context.Context, field domainDevice.GroupField) ([]domainDevice.GroupCount, error) {
	query, err := countByQuery(r.db.DB.WithContext(ctx), field)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		GroupKey string
		Count    int64
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count devices by %s: %w", field, err)
	}

	counts := make([]domainDevice.GroupCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, domainDevice.GroupCount{Key: row.GroupKey, Count: row.Count})
	}

	return counts, nil
}

func countByQuery(tx *gorm.DB, field domainDevice.GroupField) (*gorm.DB, error) {
	column, ok := groupColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	query := tx.Model(&models.DeviceModel{}).
		Select(column + " AS group_key, COUNT(*) AS count").
		Group(column)
	if field == domainDevice.GroupByLocation {
		query = query.Where(column + " IS NOT NULL")
	}

	return query, nil
}

// applyFilter adds the filter predicates (not pagination) to query.
func applyFilter(query *gorm.DB, filter *domainDevice.Filter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Address != "" {
		query = query.Where("location_address = ?", filter.Address)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where("(name ILIKE ? OR type ILIKE ? OR location_address ILIKE ?)", pattern, pattern, pattern)
	}
	return query
}

// escapeLike makes LIKE metacharacters in s match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// patchColumns lists the columns a patch writes. Location and specifications
// are written as whole values.
func patchColumns(p *domainDevice.Patch) map[string]interface{} {
	columns := make(map[string]interface{})
	if p == nil {
		return columns
	}
	if p.Name != nil {
		columns["name"] = *p.Name
	}
	if p.Type != nil {
		columns["type"] = *p.Type
	}
	if p.Status != nil {
		columns["status"] = string(*p.Status)
	}
	if p.Location != nil {
		columns["location_longitude"] = p.Location.Longitude
		columns["location_latitude"] = p.Location.Latitude
		columns["location_address"] = p.Location.Address
	}
	if p.Specifications != nil {
		columns["specifications"] = datatypes.NewJSONType(*p.Specifications)
	}
	if p.LastOnlineTime != nil {
		columns["last_online_time"] = *p.LastOnlineTime
	}
	if p.LastMaintenanceTime != nil {
		columns["last_maintenance_time"] = *p.LastMaintenanceTime
	}
	if p.DeploymentDate != nil {
		columns["deployment_date"] = *p.DeploymentDate
	}
	if p.WarrantyExpiryDate != nil {
		columns["warranty_expiry_date"] = *p.WarrantyExpiryDate
	}
	if p.FirmwareVersion != nil {
		columns["firmware_version"] = *p.FirmwareVersion
	}
	if p.MaintenanceCycle != nil {
		columns["maintenance_cycle"] = *p.MaintenanceCycle
	}
	return columns
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func stamp(d *domainDevice.Device, now time.Time) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = now
	d.UpdatedAt = now
}

func toDeviceModel(d *domainDevice.Device) *models.DeviceModel {
	return &models.DeviceModel{
		ID:       d.ID,
		DeviceID: d.DeviceID,
		Name:     d.Name,
		Type:     d.Type,
		Status:   string(d.Status),
		Location: models.LocationModel{
			Longitude: d.Location.Longitude,
			Latitude:  d.Location.Latitude,
			Address:   d.Location.Address,
		},
		Specifications:      datatypes.NewJSONType(d.Specifications),
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

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		ID:       m.ID,
		DeviceID: m.DeviceID,
		Name:     m.Name,
		Type:     m.Type,
		Status:   domainDevice.Status(m.Status),
		Location: domainDevice.Location{
			Longitude: m.Location.Longitude,
			Latitude:  m.Location.Latitude,
			Address:   m.Location.Address,
		},
		Specifications:      m.Specifications.Data(),
		LastOnlineTime:      m.LastOnlineTime,
		LastMaintenanceTime: m.LastMaintenanceTime,
		DeploymentDate:      m.DeploymentDate,
		WarrantyExpiryDate:  m.WarrantyExpiryDate,
		FirmwareVersion:     m.FirmwareVersion,
		MaintenanceCycle:    m.MaintenanceCycle,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
