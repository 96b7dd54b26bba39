package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	domainDevice "iot-device-manager/internal/domain/device"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ValidateStatusMessage validates status message
func ValidateStatusMessage(msg *StatusMessage) error {
	if msg.DeviceID == "" {
		return &ValidationError{Field: "deviceId", Message: "deviceId is required"}
	}
	if !deviceIDPattern.MatchString(msg.DeviceID) {
		return &ValidationError{Field: "deviceId", Message: "deviceId may only contain letters, digits, '-' and '_'"}
	}

	msg.Status = strings.TrimSpace(msg.Status)
	if msg.Status == "" {
		return &ValidationError{Field: "status", Message: "status is required"}
	}
	if !domainDevice.Status(msg.Status).IsValid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", msg.Status)}
	}

	return nil
}

// DeviceIDFromTopic returns the topic level matched by the single-level
// wildcard in filter, e.g. "sensor-1" for ("devices/+/status", "devices/sensor-1/status").
func DeviceIDFromTopic(filter, topic string) (string, error) {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")
	if len(filterLevels) != len(topicLevels) {
		return "", &ValidationError{Field: "topic", Message: fmt.Sprintf("topic %q does not match %q", topic, filter)}
	}

	idx := -1
	for i, level := range filterLevels {
		switch {
		case level == "+":
			if idx >= 0 {
				return "", fmt.Errorf("topic filter %q has more than one wildcard", filter)
			}
			idx = i
		case level != topicLevels[i]:
			return "", &ValidationError{Field: "topic", Message: fmt.Sprintf("topic %q does not match %q", topic, filter)}
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("topic filter %q has no device wildcard", filter)
	}

	return topicLevels[idx], nil
}
