package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/internal/notification"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/metrics"
	"github.com/stocksentry/stocksentry/pkg/retry"
)

// NotificationOutcome summarizes one dispatch attempt sequence after all
// retries resolve or exhaust.
type NotificationOutcome struct {
	Success      bool        `json:"success"`
	LatencyMs    int64       `json:"latencyMs"`
	Path         domain.Path `json:"path"`
	ErrorMessage string      `json:"errorMessage,omitempty"`

	// OrderRecorded and OrderError report the secondary triggered-order
	// write. Its failure never fails the dispatch itself.
	OrderRecorded bool   `json:"orderRecorded,omitempty"`
	OrderError    string `json:"orderError,omitempty"`
}

// DispatcherConfig holds the dispatcher's configuration surface.
type DispatcherConfig struct {
	// ActivePath selects the transport adapter. Unrecognized values fall
	// back to the noop adapter with a warning.
	ActivePath string
	// SyncPolicy and AsyncPolicy override the per-path retry policies.
	SyncPolicy  retry.Policy
	AsyncPolicy retry.Policy
}

// DefaultDispatcherConfig returns the default dispatch configuration.
func DefaultDispatcherConfig(activePath string) *DispatcherConfig {
	return &DispatcherConfig{
		ActivePath:  activePath,
		SyncPolicy:  retry.DefaultSyncSchedule(),
		AsyncPolicy: retry.DefaultAsyncBackoff(),
	}
}

// AlertDispatcher composes classification, persistence, routed delivery
// with retry, and audit recording. Alert persistence always precedes
// delivery and is never rolled back by a delivery failure; notification is
// deliberately at-least-once, best-effort.
type AlertDispatcher struct {
	alerts  domain.AlertRepository
	orders  domain.OrderRepository
	audits  domain.AuditRepository
	router  *notification.Router
	config  *DispatcherConfig
	metrics *metrics.Metrics
	logger  *logging.Logger

	// retryOpts lets tests observe attempts and skip real waits.
	retryOpts []retry.Option
}

// DispatcherOption configures an AlertDispatcher.
type DispatcherOption func(*AlertDispatcher)

// WithRetryOptions adds options to every executor the dispatcher builds.
func WithRetryOptions(opts ...retry.Option) DispatcherOption {
	return func(d *AlertDispatcher) { d.retryOpts = opts }
}

// NewAlertDispatcher creates an AlertDispatcher.
func NewAlertDispatcher(
	alerts domain.AlertRepository,
	orders domain.OrderRepository,
	audits domain.AuditRepository,
	router *notification.Router,
	config *DispatcherConfig,
	m *metrics.Metrics,
	logger *logging.Logger,
	opts ...DispatcherOption,
) *AlertDispatcher {
	d := &AlertDispatcher{
		alerts:  alerts,
		orders:  orders,
		audits:  audits,
		router:  router,
		config:  config,
		metrics: m,
		logger:  logger.WithComponent("alert-dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate classifies the stock state and, on a threshold breach, runs the
// full dispatch sequence. A nil outcome means supply was sufficient and
// nothing was dispatched.
func (d *AlertDispatcher) Evaluate(ctx context.Context, stock *domain.StockRecord) (*NotificationOutcome, error) {
	alert, err := domain.NewAlertEvent(stock)
	if err != nil {
		return nil, err
	}

	if !stock.IsBreached() {
		d.logger.WithContext(ctx).Debug("Supply above reorder threshold",
			"daysOfSupply", stock.DaysOfSupply,
			"threshold", stock.ReorderThreshold,
		)
		return nil, nil
	}

	return d.Dispatch(ctx, alert)
}

// Dispatch persists the alert, delivers it through the selected adapter
// with retry, and records exactly one audit event for the final outcome.
func (d *AlertDispatcher) Dispatch(ctx context.Context, alert *domain.AlertEvent) (*NotificationOutcome, error) {
	// The alert stands on its own regardless of delivery outcome.
	record := domain.NewAlertRecord(alert)
	if err := d.alerts.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}
	d.logger.WithContext(ctx).Info("Alert persisted",
		"kind", alert.Kind,
		"severity", alert.Severity,
		"daysOfSupply", alert.DaysOfSupply,
	)

	adapter := d.router.Select(d.config.ActivePath)
	path := adapter.Path()

	executor := d.newExecutor(ctx, adapter)

	start := time.Now()
	result, sendErr := retry.DoWithResult(ctx, executor, func(ctx context.Context) (*notification.SendResult, error) {
		return adapter.Send(ctx, alert)
	})
	latency := time.Since(start)

	outcome := &NotificationOutcome{
		Success:   sendErr == nil,
		LatencyMs: latency.Milliseconds(),
		Path:      path,
	}
	if sendErr != nil {
		outcome.ErrorMessage = sendErr.Error()
	}

	d.recordAudit(ctx, adapter, alert, latency, sendErr)
	d.metrics.RecordNotification(path.String(), sendErr == nil, latency)

	if sendErr != nil {
		d.logger.WithContext(ctx).WithError(sendErr).Error("Notification delivery failed after retries",
			"path", path,
			"latencyMs", latency.Milliseconds(),
		)
		return outcome, nil
	}

	if result != nil && result.OrderTriggered {
		d.absorbTriggeredOrder(ctx, alert, result, path, outcome)
	}

	return outcome, nil
}

// newExecutor builds the per-path retry executor with the audit hook.
func (d *AlertDispatcher) newExecutor(ctx context.Context, adapter notification.Adapter) *retry.Executor {
	path := adapter.Path()
	policy := d.config.SyncPolicy
	if path == domain.PathAsync {
		policy = d.config.AsyncPolicy
	}

	opts := []retry.Option{
		retry.WithObserver(func(attempt int, delay time.Duration, err error) {
			d.metrics.RecordNotificationAttempt(path.String())
			d.logger.DispatchAttempt(ctx, path.String(), attempt, delay, err)
		}),
	}
	opts = append(opts, d.retryOpts...)
	return retry.NewExecutor(policy, opts...)
}

// recordAudit writes the single audit event summarizing the dispatch. Its
// own failure is captured and logged, never propagated past the dispatch
// result.
func (d *AlertDispatcher) recordAudit(ctx context.Context, adapter notification.Adapter, alert *domain.AlertEvent, latency time.Duration, sendErr error) {
	status := domain.AuditSuccess
	if sendErr != nil {
		status = domain.AuditFailure
	}

	payload, _ := json.Marshal(alert)
	event := domain.NewAuditEvent(adapter.EventType(), domain.DirectionOutgoing, adapter.Path(), status).
		WithLatency(latency).
		WithPayload(string(payload)).
		WithError(sendErr)

	if err := d.audits.Append(ctx, event, adapter.Path()); err != nil {
		d.logger.WithContext(ctx).WithError(err).Error("Failed to append dispatch audit event",
			"path", adapter.Path(),
			"status", status,
		)
	}
}

// absorbTriggeredOrder persists the replenishment order the counterparty
// reported. Failure here is reported in the outcome, never as a dispatch
// failure.
func (d *AlertDispatcher) absorbTriggeredOrder(ctx context.Context, alert *domain.AlertEvent, result *notification.SendResult, path domain.Path, outcome *NotificationOutcome) {
	orderID := result.OrderID
	if orderID == "" {
		orderID = "RO-" + uuid.New().String()[:8]
	}

	cmd := &domain.OrderCommand{
		CommandID:             uuid.New().String(),
		OrderID:               orderID,
		FacilityID:            alert.FacilityID,
		ProductCode:           alert.ProductCode,
		Quantity:              domain.ReplenishmentQuantity(alert.ConsumptionRate),
		Priority:              domain.ReplenishmentPriority(alert.DaysOfSupply),
		EstimatedDeliveryDate: time.Now().UTC().Add(48 * time.Hour),
	}

	record, err := domain.NewOrderRecord(cmd, path)
	if err == nil {
		err = d.orders.Insert(ctx, record, path)
	}
	if err != nil {
		outcome.OrderError = err.Error()
		d.logger.WithContext(ctx).WithError(err).Error("Failed to record triggered order",
			"orderId", orderID,
			"path", path,
		)
		return
	}

	outcome.OrderRecorded = true
	d.logger.WithContext(ctx).Info("Triggered order recorded",
		"orderId", orderID,
		"quantity", cmd.Quantity,
		"priority", cmd.Priority,
		"path", path,
	)
}
