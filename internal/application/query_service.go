package application

import (
	"context"
	"fmt"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/logging"
)

// QueryService serves read access to alerts, orders, and the audit trail,
// including the per-path comparison the provenance tags exist for.
type QueryService struct {
	alerts domain.AlertRepository
	orders domain.OrderRepository
	audits domain.AuditRepository
	logger *logging.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(
	alerts domain.AlertRepository,
	orders domain.OrderRepository,
	audits domain.AuditRepository,
	logger *logging.Logger,
) *QueryService {
	return &QueryService{
		alerts: alerts,
		orders: orders,
		audits: audits,
		logger: logger.WithComponent("query-service"),
	}
}

// RecentAlerts returns the most recent alert records.
func (s *QueryService) RecentAlerts(ctx context.Context, limit int64) ([]*domain.AlertRecord, error) {
	return s.alerts.FindRecent(ctx, limit)
}

// AcknowledgeAlert marks an alert acknowledged.
func (s *QueryService) AcknowledgeAlert(ctx context.Context, id string) (*domain.AlertRecord, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	alert.Acknowledge()
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return alert, nil
}

// ResolveAlert marks an alert resolved.
func (s *QueryService) ResolveAlert(ctx context.Context, id string) (*domain.AlertRecord, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	alert.Resolve()
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return alert, nil
}

// OrdersByPath returns orders recorded under one delivery path.
func (s *QueryService) OrdersByPath(ctx context.Context, path string, limit int64) ([]*domain.OrderRecord, error) {
	p, err := domain.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return s.orders.FindByPath(ctx, p, limit)
}

// AuditByPath returns audit events recorded under one delivery path.
func (s *QueryService) AuditByPath(ctx context.Context, path string, limit int64) ([]*domain.AuditEvent, error) {
	p, err := domain.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return s.audits.FindByPath(ctx, p, limit)
}

// Comparison summarizes audit outcomes for every delivery path side by
// side.
func (s *QueryService) Comparison(ctx context.Context) ([]*domain.PathComparison, error) {
	summaries := make([]*domain.PathComparison, 0, len(domain.AllPaths()))
	for _, path := range domain.AllPaths() {
		summary, err := s.audits.Summarize(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize path %s: %w", path, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
