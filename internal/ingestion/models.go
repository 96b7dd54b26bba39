package ingestion

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusMessage is the payload a device publishes on its status topic.
type StatusMessage struct {
	DeviceID   string    `json:"-"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"-"`
}

// ParseStatusMessage decodes a status payload received on topic, taking the
// device id from the wildcard segment matched by filter.
func ParseStatusMessage(filter, topic string, payload []byte) (*StatusMessage, error) {
	deviceID, err := DeviceIDFromTopic(filter, topic)
	if err != nil {
		return nil, err
	}

	var msg StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse status message: %w", err)
	}
	msg.DeviceID = deviceID
	msg.ReceivedAt = time.Now()

	if err := ValidateStatusMessage(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
