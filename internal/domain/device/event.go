package device

import (
	"context"
	"time"
)

const EventTypeStatusChange = "status_change"

// StatusChange is emitted after a device's status was written.
type StatusChange struct {
	DeviceID  string
	From      Status
	To        Status
	Timestamp time.Time
}

// EventPublisher delivers device events to interested parties.
type EventPublisher interface {
	PublishStatusChange(ctx context.Context, event StatusChange) error
}
