package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/logging"
)

type stubAdapter struct {
	path domain.Path
}

func (a *stubAdapter) Path() domain.Path                 { return a.path }
func (a *stubAdapter) EventType() domain.AuditEventType  { return domain.AuditStockUpdateSent }
func (a *stubAdapter) Send(ctx context.Context, alert *domain.AlertEvent) (*SendResult, error) {
	return &SendResult{}, nil
}

func TestRouter_Select(t *testing.T) {
	logger := logging.New(logging.DefaultConfig("test"))
	syncAdapter := &stubAdapter{path: domain.PathSync}
	asyncAdapter := &stubAdapter{path: domain.PathAsync}
	fallback := NewNoopAdapter(domain.PathSync, logger)

	router := NewRouter(logger, fallback, syncAdapter, asyncAdapter)

	tests := []struct {
		name       string
		configured string
		want       Adapter
	}{
		{"sync path", "SYNC", syncAdapter},
		{"async path", "ASYNC", asyncAdapter},
		{"unknown falls back to noop", "CARRIER_PIGEON", fallback},
		{"empty falls back to noop", "", fallback},
		{"case mismatch falls back to noop", "sync", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Select(tt.configured)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestNoopAdapter_Send(t *testing.T) {
	logger := logging.New(logging.DefaultConfig("test"))
	adapter := NewNoopAdapter(domain.PathAsync, logger)

	assert.Equal(t, domain.PathAsync, adapter.Path())

	stock, err := domain.NewStockRecord("FAC-001", "MILK-1L", 5, 10, 2.0)
	require.NoError(t, err)
	alert, err := domain.NewAlertEvent(stock)
	require.NoError(t, err)

	result, err := adapter.Send(context.Background(), alert)
	require.NoError(t, err)
	assert.False(t, result.OrderTriggered)
}
