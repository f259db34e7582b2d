package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all stock-sentry metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Notification metrics, labeled by delivery path for comparison
	NotificationsTotal   *prometheus.CounterVec
	NotificationLatency  *prometheus.HistogramVec
	NotificationAttempts *prometheus.CounterVec

	// Ingestion metrics
	OrdersIngested *prometheus.CounterVec

	// Evaluation loop metrics
	EvaluationCycles   prometheus.Counter
	EvaluationFailures prometheus.Counter

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaEventsConsumed  *prometheus.CounterVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "sentry",
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "method", "path"},
	)

	m.NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "notifications_total",
			Help:      "Total number of notification dispatch sequences",
		},
		[]string{"service", "path", "status"},
	)

	m.NotificationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "notification_latency_seconds",
			Help:      "Whole retry sequence latency per delivery path",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"service", "path"},
	)

	m.NotificationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "notification_attempts_total",
			Help:      "Total number of individual delivery attempts",
		},
		[]string{"service", "path"},
	)

	m.OrdersIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "orders_ingested_total",
			Help:      "Total number of inbound order commands by outcome",
		},
		[]string{"service", "path", "result"},
	)

	m.EvaluationCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "evaluation_cycles_total",
			Help:        "Total number of stock evaluation cycles",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.EvaluationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "evaluation_failures_total",
			Help:        "Total number of failed stock evaluation cycles",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaEventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "kafka_events_consumed_total",
			Help:      "Total number of Kafka events consumed",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "mongodb_operations_total",
			Help:      "Total number of MongoDB operations",
		},
		[]string{"service", "collection", "operation", "status"},
	)

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "collection", "operation"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.NotificationsTotal,
		m.NotificationLatency,
		m.NotificationAttempts,
		m.OrdersIngested,
		m.EvaluationCycles,
		m.EvaluationFailures,
		m.KafkaEventsPublished,
		m.KafkaEventsConsumed,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// RecordNotification records a completed dispatch sequence for a path
func (m *Metrics) RecordNotification(path string, success bool, latency time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.NotificationsTotal.WithLabelValues(m.serviceName, path, status).Inc()
	m.NotificationLatency.WithLabelValues(m.serviceName, path).Observe(latency.Seconds())
}

// RecordNotificationAttempt records one delivery attempt for a path
func (m *Metrics) RecordNotificationAttempt(path string) {
	m.NotificationAttempts.WithLabelValues(m.serviceName, path).Inc()
}

// RecordOrderIngested records an inbound order command outcome
func (m *Metrics) RecordOrderIngested(path, result string) {
	m.OrdersIngested.WithLabelValues(m.serviceName, path, result).Inc()
}

// RecordKafkaPublish records a Kafka publish
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status).Inc()
}

// RecordKafkaConsume records a Kafka consume
func (m *Metrics) RecordKafkaConsume(topic, eventType string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.KafkaEventsConsumed.WithLabelValues(m.serviceName, topic, eventType, status).Inc()
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}
