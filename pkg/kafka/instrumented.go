package kafka

import (
	"context"
	"time"

	"github.com/stocksentry/stocksentry/pkg/events"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/metrics"
)

// Publisher is the publish surface shared by every layer of the producer
// stack.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event *events.CloudEvent) error
	Close() error
}

// InstrumentedProducer wraps a Publisher with publish metrics and logging.
type InstrumentedProducer struct {
	producer Publisher
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewInstrumentedProducer creates an instrumented producer.
func NewInstrumentedProducer(producer Publisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger.WithComponent("kafka-producer"),
	}
}

// PublishEvent publishes the event and records the outcome.
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *events.CloudEvent) error {
	start := time.Now()
	err := p.producer.PublishEvent(ctx, topic, event)

	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, err == nil)
	}
	p.logger.KafkaPublish(ctx, topic, event.Type, err == nil, time.Since(start))

	return err
}

// Close closes the underlying producer.
func (p *InstrumentedProducer) Close() error {
	return p.producer.Close()
}

// InstrumentedConsumer wraps Consumer so every handled event records its
// outcome.
type InstrumentedConsumer struct {
	consumer *Consumer
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewInstrumentedConsumer creates an instrumented consumer.
func NewInstrumentedConsumer(consumer *Consumer, m *metrics.Metrics, logger *logging.Logger) *InstrumentedConsumer {
	return &InstrumentedConsumer{
		consumer: consumer,
		metrics:  m,
		logger:   logger.WithComponent("kafka-consumer"),
	}
}

// Subscribe subscribes to a topic with an instrumented handler.
func (c *InstrumentedConsumer) Subscribe(topic string, eventType string, handler EventHandler) {
	c.consumer.Subscribe(topic, eventType, c.instrument(topic, handler))
}

// SubscribeAll subscribes to all event types on a topic with an instrumented
// handler.
func (c *InstrumentedConsumer) SubscribeAll(topic string, handler EventHandler) {
	c.consumer.SubscribeAll(topic, c.instrument(topic, handler))
}

func (c *InstrumentedConsumer) instrument(topic string, handler EventHandler) EventHandler {
	return func(ctx context.Context, event *events.CloudEvent) error {
		err := handler(ctx, event)

		if c.metrics != nil {
			c.metrics.RecordKafkaConsume(topic, event.Type, err == nil)
		}
		c.logger.KafkaConsume(ctx, topic, event.Type, err == nil)

		return err
	}
}

// Start starts the underlying consumer loop.
func (c *InstrumentedConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Close closes the underlying consumer.
func (c *InstrumentedConsumer) Close() error {
	return c.consumer.Close()
}
