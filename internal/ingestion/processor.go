package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	domainDevice "iot-device-manager/internal/domain/device"
	"iot-device-manager/internal/logger"
	"iot-device-manager/internal/metrics"
	"iot-device-manager/internal/usecase/device"

	"go.uber.org/zap"
)

const (
	DefaultWorkerCount = 4
	DefaultBufferSize  = 1024

	applyTimeout = 10 * time.Second
)

// StatusSetter applies a status to a device identified by id or deviceId.
type StatusSetter interface {
	SetStatus(ctx context.Context, identifier string, req *device.UpdateStatusRequest) (*device.DeviceResponse, error)
}

// Processor applies queued status messages with a fixed pool of workers.
// Messages for one device may be applied out of order across workers.
type Processor struct {
	setter      StatusSetter
	workerCount int

	statusChan chan *StatusMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	metrics *MetricsTracker
}

func NewProcessor(setter StatusSetter, workerCount, bufferSize int) *Processor {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		setter:      setter,
		workerCount: workerCount,
		statusChan:  make(chan *StatusMessage, bufferSize),
		ctx:         ctx,
		cancel:      cancel,
		metrics:     NewMetricsTracker(),
	}
}

func (p *Processor) Start() {
	logger.Info("Starting status processor", zap.Int("workers", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains queued messages and waits for the workers to exit.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.statusChan)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	logger.Info("Status processor stopped")
}

// Enqueue queues a message without blocking. A full buffer drops the message.
func (p *Processor) Enqueue(msg *StatusMessage) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.statusChan <- msg:
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesReceived++
			m.BufferSize = len(p.statusChan)
		})
		return true
	default:
		logger.Warn("Status buffer full, dropping message", zap.String("device_id", msg.DeviceID))
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesDropped++
		})
		return false
	}
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for msg := range p.statusChan {
		p.apply(msg)
	}
	logger.Debug("Status worker exited", zap.Int("worker", id))
}

func (p *Processor) apply(msg *StatusMessage) {
	ctx, cancel := context.WithTimeout(p.ctx, applyTimeout)
	defer cancel()

	_, err := p.setter.SetStatus(ctx, msg.DeviceID, &device.UpdateStatusRequest{Status: msg.Status})
	metrics.IncMQTTMessage("in", err)

	if err != nil {
		level := logger.Error
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			level = logger.Warn
		}
		level("Failed to apply device status",
			zap.String("device_id", msg.DeviceID),
			zap.String("status", msg.Status),
			zap.Error(err),
		)
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	p.metrics.Update(func(m *IngestMetrics) {
		m.MessagesProcessed++
		m.LastProcessedAt = time.Now()
		m.BufferSize = len(p.statusChan)
	})
}

func (p *Processor) Metrics() IngestMetrics {
	return p.metrics.Snapshot()
}
