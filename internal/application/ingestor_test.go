package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/contracts/orders"
	"github.com/stocksentry/stocksentry/pkg/events"
)

func testCommand() *domain.OrderCommand {
	return &domain.OrderCommand{
		CommandID:   "cmd-1",
		OrderID:     "RO-1",
		FacilityID:  "FAC-001",
		ProductCode: "MILK-1L",
		Quantity:    50,
		Priority:    domain.PriorityHigh,
	}
}

func newTestIngestor(t *testing.T, orderRepo *fakeOrderRepo, audits *fakeAuditRepo) *OrderIngestor {
	t.Helper()
	validator, err := orders.NewCommandValidator()
	require.NoError(t, err)
	return NewOrderIngestor(orderRepo, audits, validator, "FAC-001", testMetrics(), testLogger())
}

func TestIngestor_AcceptsCommand(t *testing.T) {
	orderRepo := &fakeOrderRepo{}
	audits := &fakeAuditRepo{}
	ingestor := newTestIngestor(t, orderRepo, audits)

	result, err := ingestor.Ingest(context.Background(), testCommand(), domain.PathSync)

	require.NoError(t, err)
	assert.True(t, result.Processed)

	require.Len(t, orderRepo.inserted, 1)
	order := orderRepo.inserted[0]
	assert.Equal(t, "cmd-1", order.CommandID)
	assert.Equal(t, domain.OrderStatusReceived, order.Status)
	assert.Equal(t, domain.PathSync, order.Path)

	require.Len(t, audits.appended, 1)
	audit := audits.appended[0]
	assert.Equal(t, domain.AuditOrderReceived, audit.EventType)
	assert.Equal(t, domain.DirectionIncoming, audit.Direction)
	assert.Equal(t, domain.AuditSuccess, audit.Status)
	assert.Equal(t, domain.PathSync, audit.Path)
}

func TestIngestor_SkipsOtherFacility(t *testing.T) {
	orderRepo := &fakeOrderRepo{}
	audits := &fakeAuditRepo{}
	ingestor := newTestIngestor(t, orderRepo, audits)

	cmd := testCommand()
	cmd.FacilityID = "FAC-999"

	result, err := ingestor.Ingest(context.Background(), cmd, domain.PathSync)

	require.NoError(t, err)
	assert.False(t, result.Processed)
	assert.Equal(t, ReasonNotForThisFacility, result.Reason)
	assert.Empty(t, orderRepo.inserted, "skipped commands write nothing")
	assert.Empty(t, audits.appended, "skipped commands audit nothing")
}

func TestIngestor_DuplicateIsAuditedThenSurfaced(t *testing.T) {
	orderRepo := &fakeOrderRepo{}
	audits := &fakeAuditRepo{}
	ingestor := newTestIngestor(t, orderRepo, audits)

	_, err := ingestor.Ingest(context.Background(), testCommand(), domain.PathSync)
	require.NoError(t, err)

	// Redelivery of the same command, this time over the other path.
	_, err = ingestor.Ingest(context.Background(), testCommand(), domain.PathAsync)

	require.ErrorIs(t, err, domain.ErrDuplicateCommand)
	assert.Len(t, orderRepo.inserted, 1, "exactly one record per commandId")

	require.Len(t, audits.appended, 2)
	dupAudit := audits.appended[1]
	assert.Equal(t, domain.AuditFailure, dupAudit.Status)
	assert.Equal(t, domain.PathAsync, dupAudit.Path)
	assert.NotEmpty(t, dupAudit.ErrorMessage)
}

func TestIngestor_AuditFailureNeverMasksDuplicate(t *testing.T) {
	orderRepo := &fakeOrderRepo{}
	ingestor := newTestIngestor(t, orderRepo, &fakeAuditRepo{})

	_, err := ingestor.Ingest(context.Background(), testCommand(), domain.PathSync)
	require.NoError(t, err)

	failingAudits := &fakeAuditRepo{appendErr: assert.AnError}
	ingestor = newTestIngestor(t, orderRepo, failingAudits)

	_, err = ingestor.Ingest(context.Background(), testCommand(), domain.PathSync)
	require.ErrorIs(t, err, domain.ErrDuplicateCommand, "duplicate error survives an audit write failure")
}

func TestIngestor_RejectsInvalidPath(t *testing.T) {
	orderRepo := &fakeOrderRepo{}
	audits := &fakeAuditRepo{}
	ingestor := newTestIngestor(t, orderRepo, audits)

	_, err := ingestor.Ingest(context.Background(), testCommand(), domain.Path("sideways"))

	require.ErrorIs(t, err, domain.ErrInvalidProvenance)
	assert.Empty(t, orderRepo.inserted)
	assert.Empty(t, audits.appended)
}

func TestIngestor_RejectsContractViolations(t *testing.T) {
	orderRepo := &fakeOrderRepo{}
	audits := &fakeAuditRepo{}
	ingestor := newTestIngestor(t, orderRepo, audits)

	tests := []struct {
		name   string
		mutate func(*domain.OrderCommand)
	}{
		{"zero quantity", func(c *domain.OrderCommand) { c.Quantity = 0 }},
		{"missing command id", func(c *domain.OrderCommand) { c.CommandID = "" }},
		{"unknown priority", func(c *domain.OrderCommand) { c.Priority = "WHENEVER" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := testCommand()
			tt.mutate(cmd)

			_, err := ingestor.Ingest(context.Background(), cmd, domain.PathSync)
			require.Error(t, err)
		})
	}

	assert.Empty(t, orderRepo.inserted, "invalid commands write nothing")
}

func TestIngestor_HandleCommandEvent(t *testing.T) {
	newEvent := func(data any) *events.CloudEvent {
		factory := events.NewFactory(events.SourceMonitor)
		return factory.NewEvent(events.OrderCommandSent, "orders/RO-1", data)
	}

	t.Run("accepts a well-formed event on the async path", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{}
		ingestor := newTestIngestor(t, orderRepo, &fakeAuditRepo{})

		err := ingestor.HandleCommandEvent(context.Background(), newEvent(events.OrderCommandData{
			CommandID:   "cmd-async-1",
			OrderID:     "RO-1",
			FacilityID:  "FAC-001",
			ProductCode: "MILK-1L",
			Quantity:    30,
		}))

		require.NoError(t, err)
		require.Len(t, orderRepo.inserted, 1)
		assert.Equal(t, domain.PathAsync, orderRepo.inserted[0].Path)
	})

	t.Run("drops duplicates instead of forcing redelivery", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{}
		ingestor := newTestIngestor(t, orderRepo, &fakeAuditRepo{})

		event := newEvent(events.OrderCommandData{
			CommandID:   "cmd-async-2",
			OrderID:     "RO-2",
			FacilityID:  "FAC-001",
			ProductCode: "MILK-1L",
			Quantity:    30,
		})
		require.NoError(t, ingestor.HandleCommandEvent(context.Background(), event))
		assert.NoError(t, ingestor.HandleCommandEvent(context.Background(), event),
			"a duplicate must be dropped, not redelivered forever")
		assert.Len(t, orderRepo.inserted, 1)
	})

	t.Run("drops invalid commands", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{}
		ingestor := newTestIngestor(t, orderRepo, &fakeAuditRepo{})

		err := ingestor.HandleCommandEvent(context.Background(), newEvent(events.OrderCommandData{
			CommandID: "cmd-async-3",
		}))

		assert.NoError(t, err, "permanently bad commands are dropped")
		assert.Empty(t, orderRepo.inserted)
	})

	t.Run("surfaces storage trouble for redelivery", func(t *testing.T) {
		orderRepo := &fakeOrderRepo{insertErr: assert.AnError}
		ingestor := newTestIngestor(t, orderRepo, &fakeAuditRepo{})

		err := ingestor.HandleCommandEvent(context.Background(), newEvent(events.OrderCommandData{
			CommandID:   "cmd-async-4",
			OrderID:     "RO-4",
			FacilityID:  "FAC-001",
			ProductCode: "MILK-1L",
			Quantity:    30,
		}))

		assert.Error(t, err, "transient failures leave the message uncommitted")
	})
}
