// Package events publishes device lifecycle events to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"
	"iot-device-manager/internal/metrics"
)

const defaultPublishTimeout = 5 * time.Second

// Broker is the subset of the MQTT client used for publishing.
type Broker interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// Message is the wire form of a device event.
type Message struct {
	Type      string      `json:"type"`
	DeviceID  string      `json:"deviceId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type statusChangeData struct {
	From domainDevice.Status `json:"from"`
	To   domainDevice.Status `json:"to"`
}

// MQTTPublisher implements domainDevice.EventPublisher on an MQTT broker.
type MQTTPublisher struct {
	broker       Broker
	topicPattern string
	qos          byte
	timeout      time.Duration
}

// NewMQTTPublisher publishes to fmt.Sprintf(topicPattern, deviceID).
func NewMQTTPublisher(broker Broker, topicPattern string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{
		broker:       broker,
		topicPattern: topicPattern,
		qos:          qos,
		timeout:      defaultPublishTimeout,
	}
}

func (p *MQTTPublisher) PublishStatusChange(ctx context.Context, event domainDevice.StatusChange) (err error) {
	defer func() { metrics.IncMQTTMessage("out", err) }()

	payload, err := json.Marshal(Message{
		Type:      domainDevice.EventTypeStatusChange,
		DeviceID:  event.DeviceID,
		Timestamp: event.Timestamp.UTC(),
		Data:      statusChangeData{From: event.From, To: event.To},
	})
	if err != nil {
		return fmt.Errorf("encode status change: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	topic := p.Topic(event.DeviceID)
	if err := p.broker.Publish(ctx, topic, p.qos, false, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Topic(deviceID string) string {
	return fmt.Sprintf(p.topicPattern, deviceID)
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishStatusChange(context.Context, domainDevice.StatusChange) error { return nil }
