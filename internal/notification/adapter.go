// Package notification routes stock alerts to one of the interchangeable
// delivery paths behind a common adapter interface.
package notification

import (
	"context"

	"github.com/stocksentry/stocksentry/internal/domain"
)

// SendResult is the counterparty's answer to a delivered alert. The
// synchronous path may report that it triggered a replenishment order.
type SendResult struct {
	OrderTriggered bool   `json:"orderTriggered"`
	OrderID        string `json:"orderId,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Adapter delivers a stock alert over one transport. Failures surface as
// errors classifiable by the faults package, never as silent nil results.
type Adapter interface {
	// Path is the provenance tag recorded for deliveries through this
	// adapter.
	Path() domain.Path
	// EventType is the audit event type recorded for deliveries through
	// this adapter.
	EventType() domain.AuditEventType
	// Send delivers one alert and returns the counterparty's response.
	Send(ctx context.Context, alert *domain.AlertEvent) (*SendResult, error)
}
