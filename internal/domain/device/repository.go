package device

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for device repository operations
type Repository interface {
	Create(ctx context.Context, device *Device) error
	// CreateBatch inserts every device or none of them.
	CreateBatch(ctx context.Context, devices []*Device) error
	GetByID(ctx context.Context, id uuid.UUID) (*Device, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	Update(ctx context.Context, id uuid.UUID, patch *Patch) (*Device, error)
	// UpdateStatus sets status and lastOnlineTime (nil clears it) and returns the updated device.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, lastOnline *time.Time) (*Device, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
	Find(ctx context.Context, filter *Filter) ([]*Device, error)
	// Count ignores pagination; a nil filter counts every device.
	Count(ctx context.Context, filter *Filter) (int64, error)
	CountBy(ctx context.Context, field GroupField) ([]GroupCount, error)
}
