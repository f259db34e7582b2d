package application

import (
	"context"
	"errors"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/internal/notification"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/metrics"
)

func testLogger() *logging.Logger {
	return logging.New(logging.DefaultConfig("test"))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("test"))
}

type fakeStockRepo struct {
	stock *domain.StockRecord
	err   error
}

func (f *fakeStockRepo) Upsert(ctx context.Context, stock *domain.StockRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stock = stock
	return nil
}

func (f *fakeStockRepo) GetCurrent(ctx context.Context, facilityID, productCode string) (*domain.StockRecord, error) {
	return f.stock, f.err
}

type fakeAlertRepo struct {
	inserted  []*domain.AlertRecord
	insertErr error
}

func (f *fakeAlertRepo) Insert(ctx context.Context, alert *domain.AlertRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, alert)
	return nil
}

func (f *fakeAlertRepo) FindByID(ctx context.Context, id string) (*domain.AlertRecord, error) {
	if len(f.inserted) == 0 {
		return nil, errors.New("alert not found")
	}
	return f.inserted[0], nil
}

func (f *fakeAlertRepo) Update(ctx context.Context, alert *domain.AlertRecord) error {
	return nil
}

func (f *fakeAlertRepo) FindRecent(ctx context.Context, limit int64) ([]*domain.AlertRecord, error) {
	return f.inserted, nil
}

type fakeOrderRepo struct {
	inserted  []*domain.OrderRecord
	insertErr error
}

func (f *fakeOrderRepo) Insert(ctx context.Context, record *domain.OrderRecord, path domain.Path) error {
	if err := domain.ValidatePath(path); err != nil {
		return err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.inserted {
		if existing.CommandID == record.CommandID {
			return domain.ErrDuplicateCommand
		}
	}
	record.Path = path
	f.inserted = append(f.inserted, record)
	return nil
}

func (f *fakeOrderRepo) FindByCommandID(ctx context.Context, commandID string) (*domain.OrderRecord, error) {
	for _, record := range f.inserted {
		if record.CommandID == commandID {
			return record, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindByPath(ctx context.Context, path domain.Path, limit int64) ([]*domain.OrderRecord, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, err
	}
	var out []*domain.OrderRecord
	for _, record := range f.inserted {
		if record.Path == path {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	appended  []*domain.AuditEvent
	appendErr error
}

func (f *fakeAuditRepo) Append(ctx context.Context, event *domain.AuditEvent, path domain.Path) error {
	if err := domain.ValidatePath(path); err != nil {
		return err
	}
	if f.appendErr != nil {
		return f.appendErr
	}
	event.Path = path
	f.appended = append(f.appended, event)
	return nil
}

func (f *fakeAuditRepo) FindByPath(ctx context.Context, path domain.Path, limit int64) ([]*domain.AuditEvent, error) {
	var out []*domain.AuditEvent
	for _, event := range f.appended {
		if event.Path == path {
			out = append(out, event)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) Summarize(ctx context.Context, path domain.Path) (*domain.PathComparison, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, err
	}
	summary := &domain.PathComparison{Path: path}
	for _, event := range f.appended {
		if event.Path != path {
			continue
		}
		summary.Total++
		if event.Status == domain.AuditSuccess {
			summary.Successes++
		} else {
			summary.Failures++
		}
	}
	if summary.Total > 0 {
		summary.SuccessRatio = float64(summary.Successes) / float64(summary.Total)
	}
	return summary, nil
}

// scriptedAdapter returns the scripted results in order, repeating the last
// one when attempts run past the script.
type scriptedAdapter struct {
	path    domain.Path
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	result *notification.SendResult
	err    error
}

func (a *scriptedAdapter) Path() domain.Path { return a.path }

func (a *scriptedAdapter) EventType() domain.AuditEventType {
	if a.path == domain.PathAsync {
		return domain.AuditEventPublished
	}
	return domain.AuditStockUpdateSent
}

func (a *scriptedAdapter) Send(ctx context.Context, alert *domain.AlertEvent) (*notification.SendResult, error) {
	idx := a.calls
	if idx >= len(a.results) {
		idx = len(a.results) - 1
	}
	a.calls++
	r := a.results[idx]
	return r.result, r.err
}
