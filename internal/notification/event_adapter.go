package notification

import (
	"context"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/events"
	"github.com/stocksentry/stocksentry/pkg/kafka"
	"github.com/stocksentry/stocksentry/pkg/logging"
)

// EventPublisher is the slice of the Kafka producer the adapter needs.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *events.CloudEvent) error
}

// EventAdapter delivers alerts over the asynchronous publish/consume path.
type EventAdapter struct {
	publisher EventPublisher
	factory   *events.Factory
	topic     string
	logger    *logging.Logger
}

// NewEventAdapter creates the asynchronous-path adapter.
func NewEventAdapter(publisher EventPublisher, factory *events.Factory, logger *logging.Logger) *EventAdapter {
	return &EventAdapter{
		publisher: publisher,
		factory:   factory,
		topic:     kafka.Topics.StockAlerts,
		logger:    logger.WithComponent("event-adapter"),
	}
}

// Path implements Adapter.
func (a *EventAdapter) Path() domain.Path {
	return domain.PathAsync
}

// EventType implements Adapter.
func (a *EventAdapter) EventType() domain.AuditEventType {
	return domain.AuditEventPublished
}

// Send implements Adapter. The broker acknowledges the publish; no order
// can be triggered synchronously on this path.
func (a *EventAdapter) Send(ctx context.Context, alert *domain.AlertEvent) (*SendResult, error) {
	event := a.factory.NewStockAlertEvent(events.StockAlertData{
		Kind:            string(alert.Kind),
		Severity:        string(alert.Severity),
		FacilityID:      alert.FacilityID,
		ProductCode:     alert.ProductCode,
		CountUnits:      alert.CountUnits,
		ConsumptionRate: alert.ConsumptionRate,
		DaysOfSupply:    alert.DaysOfSupply,
		Threshold:       alert.Threshold,
	}, domain.PathAsync.String())

	if err := a.publisher.PublishEvent(ctx, a.topic, event); err != nil {
		return nil, err
	}

	return &SendResult{Message: "event published"}, nil
}
