package metrics

import (
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	metricPrefix = "iot_device_manager_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	deviceOperations       *prometheus.CounterVec
	deviceOperationLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	mqttMessages *prometheus.CounterVec
)

// Init registers the service metrics with the default registry. db may be nil.
func Init(db *sql.DB) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		deviceOperations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_operations_total",
				Help: "Total device operations by operation and result",
			},
			[]string{"operation", "result"},
		)
		deviceOperationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "device_operation_latency_seconds",
				Help:    "Device operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total device exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Device export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)

		mqttMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mqtt_messages_total",
				Help: "Total MQTT messages by direction and result",
			},
			[]string{"direction", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			deviceOperations,
			deviceOperationLatency,
			exportTotal,
			exportLatency,
			mqttMessages,
		)

		if db != nil {
			prometheus.MustRegister(collectors.NewDBStatsCollector(db, "device_management"))
		}
	})
}

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// ObserveDeviceOperation records a device usecase call.
func ObserveDeviceOperation(operation string, err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if deviceOperations != nil {
		deviceOperations.WithLabelValues(operation, result).Inc()
	}
	if deviceOperationLatency != nil {
		deviceOperationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

func ObserveExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// IncMQTTMessage counts a published ("out") or received ("in") message.
func IncMQTTMessage(direction string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if mqttMessages != nil {
		mqttMessages.WithLabelValues(direction, result).Inc()
	}
}
