package notification

import (
	"context"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/logging"
)

// NoopAdapter is the fallback for unrecognized or deliberately disabled
// notification configuration. It succeeds without delivering anything, so
// the evaluation loop keeps running and its audits stay well-formed.
type NoopAdapter struct {
	path      domain.Path
	eventType domain.AuditEventType
	logger    *logging.Logger
}

// NewNoopAdapter creates a noop adapter that records under the given path
// tag so the provenance guard still holds for its audits.
func NewNoopAdapter(path domain.Path, logger *logging.Logger) *NoopAdapter {
	return &NoopAdapter{
		path:      path,
		eventType: domain.AuditStockUpdateSent,
		logger:    logger.WithComponent("noop-adapter"),
	}
}

// Path implements Adapter.
func (a *NoopAdapter) Path() domain.Path {
	return a.path
}

// EventType implements Adapter.
func (a *NoopAdapter) EventType() domain.AuditEventType {
	return a.eventType
}

// Send implements Adapter.
func (a *NoopAdapter) Send(ctx context.Context, alert *domain.AlertEvent) (*SendResult, error) {
	a.logger.WithContext(ctx).Info("Noop adapter dropped notification",
		"kind", alert.Kind,
		"severity", alert.Severity,
		"productCode", alert.ProductCode,
	)
	return &SendResult{Message: "noop"}, nil
}
