package domain

import "context"

// StockRepository persists the facility's stock counter.
type StockRepository interface {
	Upsert(ctx context.Context, stock *StockRecord) error
	GetCurrent(ctx context.Context, facilityID, productCode string) (*StockRecord, error)
}

// AlertRepository persists alert records.
type AlertRepository interface {
	Insert(ctx context.Context, alert *AlertRecord) error
	FindByID(ctx context.Context, id string) (*AlertRecord, error)
	Update(ctx context.Context, alert *AlertRecord) error
	FindRecent(ctx context.Context, limit int64) ([]*AlertRecord, error)
}

// OrderRepository persists replenishment orders. Insert must fail with
// ErrDuplicateCommand for a repeated commandId and with
// ErrInvalidProvenance for an unrecognized path, both before or instead of
// writing a row.
type OrderRepository interface {
	Insert(ctx context.Context, record *OrderRecord, path Path) error
	FindByCommandID(ctx context.Context, commandID string) (*OrderRecord, error)
	FindByPath(ctx context.Context, path Path, limit int64) ([]*OrderRecord, error)
}

// AuditRepository appends delivery-attempt audit events. Append must fail
// with ErrInvalidProvenance for an unrecognized path before any I/O.
type AuditRepository interface {
	Append(ctx context.Context, event *AuditEvent, path Path) error
	FindByPath(ctx context.Context, path Path, limit int64) ([]*AuditEvent, error)
	Summarize(ctx context.Context, path Path) (*PathComparison, error)
}
