package kafka

import (
	"context"
	"log/slog"

	"github.com/stocksentry/stocksentry/pkg/events"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/resilience"
)

// CircuitBreakerProducer guards publishes with a circuit breaker so a broker
// outage fails fast instead of holding every dispatch in its retry schedule.
type CircuitBreakerProducer struct {
	producer Publisher
	breaker  *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer wraps a producer with circuit breaker protection.
func NewCircuitBreakerProducer(producer Publisher, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	return &CircuitBreakerProducer{
		producer: producer,
		breaker:  resilience.NewCircuitBreaker(config, slogLogger),
	}
}

// PublishEvent publishes a CloudEvent through the circuit breaker.
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *events.CloudEvent) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// Close closes the underlying producer.
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}
