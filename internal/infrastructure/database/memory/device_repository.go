package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"

	"github.com/google/uuid"
)

type deviceEntry struct {
	device *domainDevice.Device
	seq    uint64
}

// DeviceRepository is an in-memory device store for local runs and tests.
// Devices are copied on the way in and out.
type DeviceRepository struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*deviceEntry
	byDeviceID map[string]uuid.UUID
	seq        uint64
	now        func() time.Time
}

// NewDeviceRepository constructs an empty repository.
func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{
		byID:       make(map[uuid.UUID]*deviceEntry),
		byDeviceID: make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byDeviceID[d.DeviceID]; exists {
		return domainDevice.ErrDeviceAlreadyExists
	}
	r.insertLocked(d, r.now())
	return nil
}

func (r *DeviceRepository) CreateBatch(ctx context.Context, devices []*domainDevice.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(devices) == 0 {
		return domainDevice.ErrEmptyBatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		if _, exists := r.byDeviceID[d.DeviceID]; exists {
			return domainDevice.ErrDeviceAlreadyExists
		}
		if _, dup := seen[d.DeviceID]; dup {
			return domainDevice.ErrDeviceAlreadyExists
		}
		seen[d.DeviceID] = struct{}{}
	}

	now := r.now()
	for _, d := range devices {
		r.insertLocked(d, now)
	}
	return nil
}

func (r *DeviceRepository) insertLocked(d *domainDevice.Device, now time.Time) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	r.seq++
	r.byID[d.ID] = &deviceEntry{device: d.Clone(), seq: r.seq}
	r.byDeviceID[d.DeviceID] = d.ID
}

func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domainDevice.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byID[id]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return entry.device.Clone(), nil
}

func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domainDevice.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDeviceID[deviceID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return r.byID[id].device.Clone(), nil
}

func (r *DeviceRepository) Update(ctx context.Context, id uuid.UUID, patch *domainDevice.Patch) (*domainDevice.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if !patch.IsEmpty() {
		patch.Apply(entry.device)
		entry.device.UpdatedAt = r.now()
	}
	return entry.device.Clone(), nil
}

func (r *DeviceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domainDevice.Status, lastOnline *time.Time) (*domainDevice.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	entry.device.Status = status
	if lastOnline != nil {
		t := *lastOnline
		entry.device.LastOnlineTime = &t
	} else {
		entry.device.LastOnlineTime = nil
	}
	entry.device.UpdatedAt = r.now()
	return entry.device.Clone(), nil
}

func (r *DeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	delete(r.byDeviceID, entry.device.DeviceID)
	delete(r.byID, id)
	return nil
}

func (r *DeviceRepository) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.byID))
	r.byID = make(map[uuid.UUID]*deviceEntry)
	r.byDeviceID = make(map[string]uuid.UUID)
	return n, nil
}

// Find returns matching devices oldest first, paginated when filter.Limit is set.
func (r *DeviceRepository) Find(ctx context.Context, filter *domainDevice.Filter) ([]*domainDevice.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matchLocked(filter)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.device.CreatedAt.Equal(b.device.CreatedAt) {
			return a.device.CreatedAt.Before(b.device.CreatedAt)
		}
		return a.seq < b.seq
	})

	if filter != nil && filter.Limit > 0 {
		start := filter.Offset()
		if start >= len(matched) {
			return []*domainDevice.Device{}, nil
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	devices := make([]*domainDevice.Device, 0, len(matched))
	for _, entry := range matched {
		devices = append(devices, entry.device.Clone())
	}
	return devices, nil
}

func (r *DeviceRepository) Count(ctx context.Context, filter *domainDevice.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.matchLocked(filter))), nil
}

func (r *DeviceRepository) CountBy(ctx context.Context, field domainDevice.GroupField) ([]domainDevice.GroupCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var key func(*domainDevice.Device) string
	switch field {
	case domainDevice.GroupByType:
		key = func(d *domainDevice.Device) string { return d.Type }
	case domainDevice.GroupByStatus:
		key = func(d *domainDevice.Device) string { return string(d.Status) }
	case domainDevice.GroupByLocation:
		key = func(d *domainDevice.Device) string { return d.Location.Address }
	default:
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, entry := range r.byID {
		counts[key(entry.device)]++
	}

	rows := make([]domainDevice.GroupCount, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, domainDevice.GroupCount{Key: k, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows, nil
}

func (r *DeviceRepository) matchLocked(filter *domainDevice.Filter) []*deviceEntry {
	matched := make([]*deviceEntry, 0, len(r.byID))
	for _, entry := range r.byID {
		if filter.Matches(entry.device) {
			matched = append(matched, entry)
		}
	}
	return matched
}
