package kafka

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksentry/stocksentry/pkg/events"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/metrics"
)

func testLogger() *logging.Logger {
	return logging.New(logging.DefaultConfig("test"))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("test"))
}

type stubPublisher struct {
	err   error
	calls int
}

func (s *stubPublisher) PublishEvent(ctx context.Context, topic string, event *events.CloudEvent) error {
	s.calls++
	return s.err
}

func (s *stubPublisher) Close() error { return nil }

func TestInstrumentedProducer_RecordsPublishOutcome(t *testing.T) {
	m := testMetrics()
	stub := &stubPublisher{}
	producer := NewInstrumentedProducer(stub, m, testLogger())

	event := &events.CloudEvent{Type: "stock.alert.raised"}
	require.NoError(t, producer.PublishEvent(context.Background(), "stock-alerts", event))

	stub.err = assert.AnError
	require.Error(t, producer.PublishEvent(context.Background(), "stock-alerts", event))

	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.KafkaEventsPublished.WithLabelValues("test", "stock-alerts", "stock.alert.raised", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.KafkaEventsPublished.WithLabelValues("test", "stock-alerts", "stock.alert.raised", "failure")))
}

func TestInstrumentedConsumer_RecordsHandlerOutcome(t *testing.T) {
	base := NewConsumer(DefaultConfig(), nil)
	m := testMetrics()
	consumer := NewInstrumentedConsumer(base, m, testLogger())

	var calls int
	consumer.Subscribe("orders", "order.command.sent", func(ctx context.Context, event *events.CloudEvent) error {
		calls++
		if calls > 1 {
			return assert.AnError
		}
		return nil
	})

	event := &events.CloudEvent{Type: "order.command.sent"}
	require.NoError(t, base.handleEvent(context.Background(), "orders", event))
	require.Error(t, base.handleEvent(context.Background(), "orders", event))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.KafkaEventsConsumed.WithLabelValues("test", "orders", "order.command.sent", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.KafkaEventsConsumed.WithLabelValues("test", "orders", "order.command.sent", "failure")))
}

func TestCircuitBreakerProducer_FailsFastAfterConsecutiveFailures(t *testing.T) {
	stub := &stubPublisher{err: assert.AnError}
	producer := NewCircuitBreakerProducer(stub, testLogger())

	event := &events.CloudEvent{Type: "stock.alert.raised"}

	// Five consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		require.Error(t, producer.PublishEvent(context.Background(), "stock-alerts", event))
	}
	assert.Equal(t, 5, stub.calls)

	// The next publish is rejected without touching the broker.
	err := producer.PublishEvent(context.Background(), "stock-alerts", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, 5, stub.calls)
}
