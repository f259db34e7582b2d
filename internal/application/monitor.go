package application

import (
	"context"
	"fmt"
	"time"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/metrics"
)

// MonitorConfig holds the evaluation loop configuration.
type MonitorConfig struct {
	FacilityID  string
	ProductCode string
	Interval    time.Duration

	// ReorderThreshold is the days-of-supply level applied when a stock
	// update does not carry its own threshold.
	ReorderThreshold float64
}

// DefaultMonitorConfig returns the default evaluation loop configuration.
func DefaultMonitorConfig(facilityID, productCode string) *MonitorConfig {
	return &MonitorConfig{
		FacilityID:       facilityID,
		ProductCode:      productCode,
		Interval:         60 * time.Second,
		ReorderThreshold: domain.DefaultReorderThreshold,
	}
}

// StockMonitor drives the periodic evaluation cycle: read the current stock
// counter, classify supply, dispatch when breached. Cycles run strictly
// sequentially; a failed cycle is logged and counted, never fatal to the
// loop.
type StockMonitor struct {
	stocks     domain.StockRepository
	dispatcher *AlertDispatcher
	config     *MonitorConfig
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewStockMonitor creates a StockMonitor.
func NewStockMonitor(
	stocks domain.StockRepository,
	dispatcher *AlertDispatcher,
	config *MonitorConfig,
	m *metrics.Metrics,
	logger *logging.Logger,
) *StockMonitor {
	return &StockMonitor{
		stocks:     stocks,
		dispatcher: dispatcher,
		config:     config,
		metrics:    m,
		logger:     logger.WithComponent("stock-monitor"),
	}
}

// Run blocks on the evaluation loop until the context is canceled. The
// first cycle runs immediately.
func (m *StockMonitor) Run(ctx context.Context) error {
	m.logger.Info("Stock monitor started",
		"facilityId", m.config.FacilityID,
		"productCode", m.config.ProductCode,
		"interval", m.config.Interval.String(),
	)

	m.cycle(ctx)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Stock monitor stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

// cycle runs one evaluation and isolates its failure.
func (m *StockMonitor) cycle(ctx context.Context) {
	m.metrics.EvaluationCycles.Inc()

	if _, err := m.EvaluateOnce(ctx); err != nil {
		m.metrics.EvaluationFailures.Inc()
		m.logger.WithContext(ctx).WithError(err).Error("Evaluation cycle failed")
	}
}

// EvaluateOnce reads the current counter and evaluates it. A missing stock
// record is not an error; there is simply nothing to evaluate yet.
func (m *StockMonitor) EvaluateOnce(ctx context.Context) (*NotificationOutcome, error) {
	stock, err := m.stocks.GetCurrent(ctx, m.config.FacilityID, m.config.ProductCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if stock == nil {
		m.logger.WithContext(ctx).Debug("No stock record yet",
			"facilityId", m.config.FacilityID,
			"productCode", m.config.ProductCode,
		)
		return nil, nil
	}

	return m.dispatcher.Evaluate(ctx, stock)
}

// UpdateStock applies an inventory counter update and evaluates it
// immediately, so a breach raised by the update does not wait for the next
// tick. The returned outcome is nil when supply stays sufficient.
func (m *StockMonitor) UpdateStock(ctx context.Context, countUnits, consumptionRate, reorderThreshold float64) (*domain.StockRecord, *NotificationOutcome, error) {
	if reorderThreshold <= 0 {
		reorderThreshold = m.config.ReorderThreshold
	}
	stock, err := domain.NewStockRecord(m.config.FacilityID, m.config.ProductCode, countUnits, consumptionRate, reorderThreshold)
	if err != nil {
		return nil, nil, err
	}

	if err := m.stocks.Upsert(ctx, stock); err != nil {
		return nil, nil, fmt.Errorf("failed to persist stock record: %w", err)
	}
	m.logger.WithContext(ctx).Info("Stock counter updated",
		"countUnits", stock.CountUnits,
		"consumptionRate", stock.ConsumptionRate,
		"daysOfSupply", stock.DaysOfSupply,
	)

	outcome, err := m.dispatcher.Evaluate(ctx, stock)
	if err != nil {
		return stock, nil, err
	}
	return stock, outcome, nil
}

// CurrentStock returns the facility's current counter, or nil when none has
// been recorded yet.
func (m *StockMonitor) CurrentStock(ctx context.Context) (*domain.StockRecord, error) {
	return m.stocks.GetCurrent(ctx, m.config.FacilityID, m.config.ProductCode)
}
