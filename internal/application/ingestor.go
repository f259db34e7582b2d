package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/contracts/orders"
	apperrors "github.com/stocksentry/stocksentry/pkg/errors"
	"github.com/stocksentry/stocksentry/pkg/events"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/metrics"
)

// ReasonNotForThisFacility marks a command skipped by the facility filter.
const ReasonNotForThisFacility = "NOT_FOR_THIS_FACILITY"

// IngestResult reports the non-error outcome of one ingestion attempt.
type IngestResult struct {
	Processed bool   `json:"processed"`
	Reason    string `json:"reason,omitempty"`
	CommandID string `json:"commandId"`
}

// OrderIngestor accepts replenishment-order commands from both delivery
// paths and persists them exactly once per commandId. Commands for other
// facilities are skipped without a write; duplicates are audited and
// rejected.
type OrderIngestor struct {
	orders     domain.OrderRepository
	audits     domain.AuditRepository
	contract   *orders.CommandValidator
	validate   *validator.Validate
	facilityID string
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewOrderIngestor creates an OrderIngestor for one facility.
func NewOrderIngestor(
	orderRepo domain.OrderRepository,
	audits domain.AuditRepository,
	contract *orders.CommandValidator,
	facilityID string,
	m *metrics.Metrics,
	logger *logging.Logger,
) *OrderIngestor {
	return &OrderIngestor{
		orders:     orderRepo,
		audits:     audits,
		contract:   contract,
		validate:   validator.New(),
		facilityID: facilityID,
		metrics:    m,
		logger:     logger.WithComponent("order-ingestor"),
	}
}

// Ingest runs the full pipeline for one command: provenance check, contract
// and field validation, facility filter, idempotent insert, audit.
func (i *OrderIngestor) Ingest(ctx context.Context, cmd *domain.OrderCommand, path domain.Path) (*IngestResult, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, err
	}

	log := i.logger.WithContext(ctx).WithPath(path.String())

	if i.contract != nil {
		if err := i.contract.Validate(cmd); err != nil {
			i.metrics.RecordOrderIngested(path.String(), "invalid")
			return nil, err
		}
	}
	if err := i.validate.Struct(cmd); err != nil {
		i.metrics.RecordOrderIngested(path.String(), "invalid")
		return nil, apperrors.ErrValidation(err.Error()).Wrap(err)
	}
	if err := cmd.Validate(); err != nil {
		i.metrics.RecordOrderIngested(path.String(), "invalid")
		return nil, err
	}

	if cmd.FacilityID != i.facilityID {
		log.Info("Order command is for another facility, skipping",
			"commandId", cmd.CommandID,
			"facilityId", cmd.FacilityID,
		)
		i.metrics.RecordOrderIngested(path.String(), "skipped")
		return &IngestResult{
			Processed: false,
			Reason:    ReasonNotForThisFacility,
			CommandID: cmd.CommandID,
		}, nil
	}

	record, err := domain.NewOrderRecord(cmd, path)
	if err != nil {
		i.metrics.RecordOrderIngested(path.String(), "invalid")
		return nil, err
	}

	if err := i.orders.Insert(ctx, record, path); err != nil {
		if errors.Is(err, domain.ErrDuplicateCommand) {
			// Record the rejection before surfacing it. A failed audit
			// write is logged but never masks the duplicate itself.
			i.appendAudit(ctx, cmd, path, domain.AuditFailure, err)
			log.Warn("Duplicate order command rejected",
				"commandId", cmd.CommandID,
				"orderId", cmd.OrderID,
			)
			i.metrics.RecordOrderIngested(path.String(), "duplicate")
			return nil, err
		}
		i.metrics.RecordOrderIngested(path.String(), "error")
		return nil, fmt.Errorf("failed to persist order command: %w", err)
	}

	i.appendAudit(ctx, cmd, path, domain.AuditSuccess, nil)
	log.Info("Order command accepted",
		"commandId", cmd.CommandID,
		"orderId", cmd.OrderID,
		"quantity", cmd.Quantity,
	)
	i.metrics.RecordOrderIngested(path.String(), "accepted")

	return &IngestResult{Processed: true, CommandID: cmd.CommandID}, nil
}

// appendAudit records the ingestion outcome. Audit failures are secondary
// and only logged.
func (i *OrderIngestor) appendAudit(ctx context.Context, cmd *domain.OrderCommand, path domain.Path, status domain.AuditStatus, cause error) {
	payload, _ := json.Marshal(cmd)
	event := domain.NewAuditEvent(domain.AuditOrderReceived, domain.DirectionIncoming, path, status).
		WithPayload(string(payload)).
		WithError(cause)

	if err := i.audits.Append(ctx, event, path); err != nil {
		i.logger.WithContext(ctx).WithError(err).Error("Failed to append ingestion audit event",
			"commandId", cmd.CommandID,
			"path", path,
			"status", status,
		)
	}
}

// HandleCommandEvent adapts an inbound broker message into the ingestion
// pipeline under the asynchronous path tag. Per-message failures are
// swallowed after logging when redelivery cannot help, so one bad or
// duplicate message never stalls the consumer.
func (i *OrderIngestor) HandleCommandEvent(ctx context.Context, event *events.CloudEvent) error {
	cmd, err := commandFromEvent(event)
	if err != nil {
		i.logger.WithContext(ctx).WithError(err).Error("Discarding malformed order command event",
			"eventId", event.ID,
			"eventType", event.Type,
		)
		i.metrics.RecordOrderIngested(domain.PathAsync.String(), "invalid")
		return nil
	}

	_, err = i.Ingest(ctx, cmd, domain.PathAsync)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrDuplicateCommand):
		// Redelivery would hit the same unique index; drop it.
		return nil
	case isCommandValidationError(err):
		return nil
	default:
		// Likely transient storage trouble; leave the message uncommitted
		// for redelivery.
		return err
	}
}

// commandFromEvent decodes the event data into a typed command.
func commandFromEvent(event *events.CloudEvent) (*domain.OrderCommand, error) {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode event data: %w", err)
	}
	var data events.OrderCommandData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode order command data: %w", err)
	}
	return &domain.OrderCommand{
		CommandID:             data.CommandID,
		OrderID:               data.OrderID,
		FacilityID:            data.FacilityID,
		ProductCode:           data.ProductCode,
		Quantity:              data.Quantity,
		Priority:              domain.Priority(data.Priority),
		EstimatedDeliveryDate: data.EstimatedDeliveryDate,
	}, nil
}

// isCommandValidationError reports whether the error is a permanent defect
// of the command itself rather than a storage failure.
func isCommandValidationError(err error) bool {
	for _, sentinel := range []error{
		domain.ErrMissingCommandID,
		domain.ErrMissingOrderID,
		domain.ErrMissingFacility,
		domain.ErrMissingProduct,
		domain.ErrInvalidQuantity,
		domain.ErrInvalidPriority,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return true
	}
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Code == apperrors.CodeValidationError
}
