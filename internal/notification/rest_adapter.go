package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/faults"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/resilience"
)

// RESTAdapterConfig holds the synchronous path configuration.
type RESTAdapterConfig struct {
	EndpointURL string
	APIKey      string
	Timeout     time.Duration
}

// DefaultRESTAdapterConfig returns sensible defaults.
func DefaultRESTAdapterConfig(endpointURL string) *RESTAdapterConfig {
	return &RESTAdapterConfig{
		EndpointURL: endpointURL,
		Timeout:     30 * time.Second,
	}
}

// RESTAdapter delivers alerts over the synchronous request/response path,
// behind a circuit breaker.
type RESTAdapter struct {
	config     *RESTAdapterConfig
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
}

// NewRESTAdapter creates the synchronous-path adapter.
func NewRESTAdapter(config *RESTAdapterConfig, logger *logging.Logger) *RESTAdapter {
	return &RESTAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: resilience.NewCircuitBreaker(
			resilience.DefaultCircuitBreakerConfig("notification-rest"),
			logger.Logger,
		),
		logger: logger.WithComponent("rest-adapter"),
	}
}

// Path implements Adapter.
func (a *RESTAdapter) Path() domain.Path {
	return domain.PathSync
}

// EventType implements Adapter.
func (a *RESTAdapter) EventType() domain.AuditEventType {
	return domain.AuditStockUpdateSent
}

// stockUpdateRequest is the wire shape of an outgoing stock update.
type stockUpdateRequest struct {
	FacilityID      string  `json:"facilityId"`
	ProductCode     string  `json:"productCode"`
	Kind            string  `json:"kind"`
	Severity        string  `json:"severity"`
	CountUnits      float64 `json:"countUnits"`
	ConsumptionRate float64 `json:"consumptionRate"`
	DaysOfSupply    float64 `json:"daysOfSupply"`
	Threshold       float64 `json:"threshold"`
}

// stockUpdateResponse is the counterparty's answer.
type stockUpdateResponse struct {
	Success        bool   `json:"success"`
	OrderTriggered bool   `json:"orderTriggered"`
	OrderID        string `json:"orderId,omitempty"`
	Message        string `json:"message,omitempty"`
}

// faultEnvelope is the counterparty's structured error body.
type faultEnvelope struct {
	FaultCode string `json:"faultCode"`
	Message   string `json:"message"`
}

// Send implements Adapter.
func (a *RESTAdapter) Send(ctx context.Context, alert *domain.AlertEvent) (*SendResult, error) {
	payload := stockUpdateRequest{
		FacilityID:      alert.FacilityID,
		ProductCode:     alert.ProductCode,
		Kind:            string(alert.Kind),
		Severity:        string(alert.Severity),
		CountUnits:      alert.CountUnits,
		ConsumptionRate: alert.ConsumptionRate,
		DaysOfSupply:    alert.DaysOfSupply,
		Threshold:       alert.Threshold,
	}

	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.doSend(ctx, payload)
	})
	if err != nil {
		return nil, err
	}
	return result.(*SendResult), nil
}

func (a *RESTAdapter) doSend(ctx context.Context, payload stockUpdateRequest) (*SendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stock update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope faultEnvelope
		_ = json.Unmarshal(respBody, &envelope)
		if envelope.Message == "" {
			envelope.Message = string(respBody)
		}
		return nil, &faults.TransportError{
			StatusCode: resp.StatusCode,
			FaultCode:  envelope.FaultCode,
			Message:    envelope.Message,
		}
	}

	var result stockUpdateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !result.Success {
		return nil, &faults.TransportError{
			FaultCode: "server.rejected",
			Message:   result.Message,
		}
	}

	return &SendResult{
		OrderTriggered: result.OrderTriggered,
		OrderID:        result.OrderID,
		Message:        result.Message,
	}, nil
}
