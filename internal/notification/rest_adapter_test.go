package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/faults"
	"github.com/stocksentry/stocksentry/pkg/logging"
)

func testAlert(t *testing.T) *domain.AlertEvent {
	t.Helper()
	stock, err := domain.NewStockRecord("FAC-001", "MILK-1L", 5, 10, 2.0)
	require.NoError(t, err)
	alert, err := domain.NewAlertEvent(stock)
	require.NoError(t, err)
	return alert
}

func newTestAdapter(t *testing.T, url string) *RESTAdapter {
	t.Helper()
	logger := logging.New(logging.DefaultConfig("test"))
	return NewRESTAdapter(DefaultRESTAdapterConfig(url), logger)
}

func TestRESTAdapter_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"orderTriggered": true,
			"orderId":        "RO-42",
			"message":        "order placed",
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	result, err := adapter.Send(context.Background(), testAlert(t))

	require.NoError(t, err)
	assert.True(t, result.OrderTriggered)
	assert.Equal(t, "RO-42", result.OrderID)
	assert.Equal(t, "FAC-001", received["facilityId"])
	assert.Equal(t, 0.5, received["daysOfSupply"])
}

func TestRESTAdapter_ServerFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"faultCode": "server.internal",
			"message":   "downstream exploded",
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	_, err := adapter.Send(context.Background(), testAlert(t))

	require.Error(t, err)
	var transportErr *faults.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	assert.Equal(t, "server.internal", transportErr.FaultCode)
	assert.True(t, faults.Classify(err).Retryable)
}

func TestRESTAdapter_BusinessRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "facility unknown",
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	_, err := adapter.Send(context.Background(), testAlert(t))

	require.Error(t, err)
	var transportErr *faults.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "server.rejected", transportErr.FaultCode)
}

func TestRESTAdapter_ClientFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"faultCode": "client.validation",
			"message":   "bad payload",
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	_, err := adapter.Send(context.Background(), testAlert(t))

	require.Error(t, err)
	assert.False(t, faults.Classify(err).Retryable, "client faults must not be retried")
}
