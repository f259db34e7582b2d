package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/internal/notification"
	"github.com/stocksentry/stocksentry/pkg/kafka"
	"github.com/stocksentry/stocksentry/pkg/mongodb"
	"github.com/stocksentry/stocksentry/pkg/retry"
)

// Config holds the monitor's configuration, sourced from the environment.
type Config struct {
	ServerAddr string

	FacilityID       string
	ProductCode      string
	ReorderThreshold float64

	// NotificationPath selects the active delivery path (SYNC or ASYNC).
	// Anything else falls back to the noop adapter with a warning.
	NotificationPath   string
	EvaluationInterval time.Duration

	SyncRetryDelays    []time.Duration
	AsyncRetryBase     time.Duration
	AsyncRetryAttempts int

	REST    *notification.RESTAdapterConfig
	MongoDB *mongodb.Config
	Kafka   *kafka.Config
}

func loadConfig() *Config {
	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	restConfig := notification.DefaultRESTAdapterConfig(
		getEnv("NOTIFICATION_ENDPOINT_URL", "http://localhost:8080/api/v1/stock-updates"),
	)
	restConfig.APIKey = getEnv("NOTIFICATION_API_KEY", "")
	restConfig.Timeout = getDurationEnv("NOTIFICATION_TIMEOUT", restConfig.Timeout)

	return &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		FacilityID:         getEnv("FACILITY_ID", "FAC-001"),
		ProductCode:        getEnv("PRODUCT_CODE", "MILK-1L"),
		ReorderThreshold:   getFloatEnv("REORDER_THRESHOLD", domain.DefaultReorderThreshold),
		NotificationPath:   getEnv("NOTIFICATION_PATH", "SYNC"),
		EvaluationInterval: getDurationEnv("EVALUATION_INTERVAL", 60*time.Second),
		SyncRetryDelays:    getDelaysEnv("SYNC_RETRY_DELAYS"),
		AsyncRetryBase:     getDurationEnv("ASYNC_RETRY_BASE", 1*time.Second),
		AsyncRetryAttempts: getIntEnv("ASYNC_RETRY_ATTEMPTS", 5),
		REST:               restConfig,
		MongoDB:            mongoConfig,
		Kafka:              kafkaConfig,
	}
}

// SyncPolicy builds the synchronous retry policy, honoring any override.
func (c *Config) SyncPolicy() retry.Policy {
	if len(c.SyncRetryDelays) > 0 {
		return retry.NewSchedule(c.SyncRetryDelays...)
	}
	return retry.DefaultSyncSchedule()
}

// AsyncPolicy builds the asynchronous retry policy.
func (c *Config) AsyncPolicy() retry.Policy {
	policy := retry.DefaultAsyncBackoff()
	policy.Base = c.AsyncRetryBase
	policy.Attempts = c.AsyncRetryAttempts
	return policy
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getDelaysEnv parses a comma-separated duration list, e.g. "5s,15s,30s".
func getDelaysEnv(key string) []time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var delays []time.Duration
	for _, part := range strings.Split(value, ",") {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		delays = append(delays, d)
	}
	return delays
}
