package device

import (
	"context"
	"errors"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"
	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/metrics"
	"iot-device-manager/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxExportRows caps how many devices a single export reads.
const MaxExportRows = 10000

// Service implements device use cases
type Service struct {
	deviceRepo domainDevice.Repository
	events     domainDevice.EventPublisher
	now        func() time.Time
}

// NewService creates a new device service. events may be nil.
func NewService(deviceRepo domainDevice.Repository, events domainDevice.EventPublisher) *Service {
	return &Service{
		deviceRepo: deviceRepo,
		events:     events,
		now:        time.Now,
	}
}

func observe(operation string, start time.Time, err *error) {
	metrics.ObserveDeviceOperation(operation, *err, time.Since(start))
}

// Resolve finds a device by primary key when identifier has that shape, falling
// back to the business device id. Absence is ErrDeviceNotFound.
func (s *Service) Resolve(ctx context.Context, identifier string) (*domainDevice.Device, domainDevice.LookupSource, error) {
	if id, ok := domainDevice.ParsePrimaryKey(identifier); ok {
		d, err := s.deviceRepo.GetByID(ctx, id)
		if err == nil {
			return d, domainDevice.LookupPrimaryKey, nil
		}
		if !errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, domainDevice.LookupNone, err
		}
	}

	d, err := s.deviceRepo.GetByDeviceID(ctx, identifier)
	if err != nil {
		return nil, domainDevice.LookupNone, err
	}
	return d, domainDevice.LookupDeviceID, nil
}

func (s *Service) CreateDevice(ctx context.Context, req *CreateDeviceRequest) (_ *DeviceResponse, err error) {
	defer observe("create", time.Now(), &err)

	sanitizeCreate(req)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	device := req.ToDraft().Build(s.now())
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, err
	}

	logger.Info("Device created",
		zap.String("id", device.ID.String()),
		zap.String("device_id", device.DeviceID),
		zap.String("event", "device_created"),
	)

	return ToDeviceResponse(device), nil
}

// CreateBatch inserts every device in one statement or none of them.
func (s *Service) CreateBatch(ctx context.Context, req *BatchCreateRequest) (_ []DeviceResponse, err error) {
	defer observe("create_batch", time.Now(), &err)

	for i := range req.Devices {
		sanitizeCreate(&req.Devices[i])
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	devices := make([]*domainDevice.Device, len(req.Devices))
	for i := range req.Devices {
		devices[i] = req.Devices[i].ToDraft().Build(now)
	}

	if err := s.deviceRepo.CreateBatch(ctx, devices); err != nil {
		return nil, err
	}

	logger.Info("Devices created",
		zap.Int("count", len(devices)),
		zap.String("event", "devices_batch_created"),
	)

	responses := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		responses[i] = *ToDeviceResponse(d)
	}
	return responses, nil
}

func (s *Service) GetDevice(ctx context.Context, identifier string) (_ *DeviceResponse, err error) {
	defer observe("get", time.Now(), &err)

	device, source, err := s.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	logger.Debug("Device resolved",
		zap.String("identifier", identifier),
		zap.Stringer("source", source),
	)

	return ToDeviceResponse(device), nil
}

// ListDevices runs the paged fetch and the total count concurrently over the same filter.
func (s *Service) ListDevices(ctx context.Context, req *DeviceFilterRequest) (_ *DeviceListResponse, err error) {
	defer observe("list", time.Now(), &err)

	sanitizeFilter(req)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	filter := req.ToDomainFilter()

	var (
		devices []*domainDevice.Device
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		devices, err = s.deviceRepo.Find(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.deviceRepo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	responses := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		responses[i] = *ToDeviceResponse(d)
	}

	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		totalPages++
	}

	return &DeviceListResponse{
		Devices:    responses,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) UpdateDevice(ctx context.Context, identifier string, req *UpdateDeviceRequest) (_ *DeviceResponse, err error) {
	defer observe("update", time.Now(), &err)

	sanitizeUpdate(req)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	current, _, err := s.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	updated, err := s.deviceRepo.Update(ctx, current.ID, req.ToPatch())
	if err != nil {
		return nil, err
	}

	logger.Info("Device updated",
		zap.String("id", updated.ID.String()),
		zap.String("device_id", updated.DeviceID),
		zap.String("event", "device_updated"),
	)

	if updated.Status != current.Status {
		s.publishStatusChange(ctx, updated.DeviceID, current.Status, updated.Status, updated.UpdatedAt)
	}

	return ToDeviceResponse(updated), nil
}

// DeleteDevice reports whether a device was removed. An unknown identifier is (false, nil).
func (s *Service) DeleteDevice(ctx context.Context, identifier string) (_ bool, err error) {
	defer observe("delete", time.Now(), &err)

	device, _, err := s.Resolve(ctx, identifier)
	if errors.Is(err, domainDevice.ErrDeviceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.deviceRepo.Delete(ctx, device.ID); err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return false, nil
		}
		return false, err
	}

	logger.Info("Device deleted",
		zap.String("id", device.ID.String()),
		zap.String("device_id", device.DeviceID),
		zap.String("event", "device_deleted"),
	)

	return true, nil
}

// SetStatus writes the status. lastOnlineTime becomes now when going online and is
// cleared for every other status.
func (s *Service) SetStatus(ctx context.Context, identifier string, req *UpdateStatusRequest) (_ *DeviceResponse, err error) {
	defer observe("set_status", time.Now(), &err)

	req.Status = utils.SanitizeString(req.Status)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	status := domainDevice.Status(req.Status)

	current, _, err := s.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var lastOnline *time.Time
	if status == domainDevice.StatusOnline {
		lastOnline = &now
	}

	updated, err := s.deviceRepo.UpdateStatus(ctx, current.ID, status, lastOnline)
	if err != nil {
		return nil, err
	}

	logger.Info("Device status changed",
		zap.String("device_id", updated.DeviceID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("event", "device_status_changed"),
	)

	s.publishStatusChange(ctx, updated.DeviceID, current.Status, status, now)

	return ToDeviceResponse(updated), nil
}

// Statistics computes the total and the three grouped counts concurrently.
// Any failing query fails the whole call.
func (s *Service) Statistics(ctx context.Context) (_ *StatisticsResponse, err error) {
	defer observe("statistics", time.Now(), &err)

	stats, err := s.collectStatistics(ctx)
	if err != nil {
		return nil, err
	}
	return ToStatisticsResponse(stats), nil
}

func (s *Service) collectStatistics(ctx context.Context) (*domainDevice.Statistics, error) {
	stats := &domainDevice.Statistics{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.deviceRepo.Count(gctx, nil)
		stats.Total = total
		return err
	})
	group := func(field domainDevice.GroupField, dst *map[string]int64) func() error {
		return func() error {
			rows, err := s.deviceRepo.CountBy(gctx, field)
			if err != nil {
				return err
			}
			*dst = domainDevice.CountsToMap(rows)
			return nil
		}
	}
	g.Go(group(domainDevice.GroupByType, &stats.ByType))
	g.Go(group(domainDevice.GroupByStatus, &stats.ByStatus))
	g.Go(group(domainDevice.GroupByLocation, &stats.ByLocation))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// ExportDevices returns every device matching the filter, ignoring pagination,
// up to MaxExportRows.
func (s *Service) ExportDevices(ctx context.Context, req *DeviceFilterRequest) ([]*domainDevice.Device, error) {
	sanitizeFilter(req)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	filter := req.ToDomainFilter()
	filter.Page = 1
	filter.Limit = MaxExportRows

	return s.deviceRepo.Find(ctx, filter)
}

// ExportStatistics returns the raw statistics for report rendering.
func (s *Service) ExportStatistics(ctx context.Context) (*domainDevice.Statistics, error) {
	return s.collectStatistics(ctx)
}

func (s *Service) publishStatusChange(ctx context.Context, deviceID string, from, to domainDevice.Status, at time.Time) {
	if s.events == nil {
		return
	}

	event := domainDevice.StatusChange{
		DeviceID:  deviceID,
		From:      from,
		To:        to,
		Timestamp: at,
	}
	if err := s.events.PublishStatusChange(ctx, event); err != nil {
		logger.Warn("Failed to publish status change",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}
}
