package ingestion

import (
	"errors"
	"fmt"
	"sync"

	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/metrics"
	pkgmqtt "iot-device-manager/pkg/mqtt"

	"go.uber.org/zap"
)

// Subscriber is the subset of the MQTT client the listener needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// StatusListener feeds device-reported status messages into the processor.
type StatusListener struct {
	subscriber Subscriber
	processor  *Processor
	topic      string
	qos        byte

	mu      sync.Mutex
	started bool
}

func NewStatusListener(subscriber Subscriber, processor *Processor, topic string, qos byte) (*StatusListener, error) {
	if subscriber == nil {
		return nil, errors.New("mqtt subscriber is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if topic == "" {
		return nil, errors.New("no MQTT status topic configured")
	}

	return &StatusListener{
		subscriber: subscriber,
		processor:  processor,
		topic:      topic,
		qos:        qos,
	}, nil
}

// Start starts the processor and subscribes to the status topic.
func (l *StatusListener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return nil
	}

	l.processor.Start()
	if err := l.subscriber.Subscribe(l.topic, l.qos, l.handleStatusMessage); err != nil {
		l.processor.Stop()
		return fmt.Errorf("subscribe failed for topic %s: %w", l.topic, err)
	}

	logger.Info("Listening for device status messages", zap.String("topic", l.topic))
	l.started = true
	return nil
}

// Stop unsubscribes, then drains the processor.
func (l *StatusListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return
	}

	if err := l.subscriber.Unsubscribe(l.topic); err != nil {
		logger.Warn("Failed to unsubscribe from status topic", zap.Error(err))
	}
	l.processor.Stop()
	l.started = false

	m := l.processor.Metrics()
	logger.Info("Status listener stopped",
		zap.Int64("received", m.MessagesReceived),
		zap.Int64("processed", m.MessagesProcessed),
		zap.Int64("failed", m.MessagesFailed),
		zap.Int64("dropped", m.MessagesDropped),
	)
}

func (l *StatusListener) handleStatusMessage(topic string, payload []byte) {
	msg, err := ParseStatusMessage(l.topic, topic, payload)
	if err != nil {
		metrics.IncMQTTMessage("in", err)
		logger.Warn("Invalid status payload", zap.String("topic", topic), zap.Error(err))
		return
	}

	l.processor.Enqueue(msg)
}
