// Package events defines the CloudEvents v1.0 envelope used on the
// asynchronous delivery path and the inbound order-command stream.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type constants
const (
	StockAlertRaised = "sentry.stock.alert-raised"
	OrderCommandSent = "sentry.order.command"
)

// Source constants
const (
	SourceMonitor = "/stock-sentry/monitor"
)

// Extension attribute names carried as message headers.
const (
	ExtPath          = "sentrypath"
	ExtFacilityID    = "sentryfacilityid"
	ExtCorrelationID = "sentrycorrelationid"
)

// CloudEvent is a CloudEvents v1.0 compliant envelope with the delivery-path
// and facility extensions this system records.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Extensions
	Path          string `json:"sentrypath,omitempty"`
	FacilityID    string `json:"sentryfacilityid,omitempty"`
	CorrelationID string `json:"sentrycorrelationid,omitempty"`
}

// StockAlertData is the payload of a StockAlertRaised event.
type StockAlertData struct {
	Kind            string  `json:"kind"`
	Severity        string  `json:"severity"`
	FacilityID      string  `json:"facilityId"`
	ProductCode     string  `json:"productCode"`
	CountUnits      float64 `json:"countUnits"`
	ConsumptionRate float64 `json:"consumptionRate"`
	DaysOfSupply    float64 `json:"daysOfSupply"`
	Threshold       float64 `json:"threshold"`
}

// OrderCommandData is the payload of an inbound OrderCommandSent event.
type OrderCommandData struct {
	CommandID             string    `json:"commandId"`
	OrderID               string    `json:"orderId"`
	FacilityID            string    `json:"facilityId"`
	ProductCode           string    `json:"productCode"`
	Quantity              int       `json:"quantity"`
	Priority              string    `json:"priority,omitempty"`
	EstimatedDeliveryDate time.Time `json:"estimatedDeliveryDate,omitempty"`
}

// Factory creates CloudEvents stamped with a fixed source.
type Factory struct {
	source string
}

// NewFactory creates an event factory for the given source.
func NewFactory(source string) *Factory {
	return &Factory{source: source}
}

// NewEvent creates an envelope with a fresh ID and UTC timestamp.
func (f *Factory) NewEvent(eventType, subject string, data interface{}) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// NewStockAlertEvent creates a StockAlertRaised event tagged with a path.
func (f *Factory) NewStockAlertEvent(data StockAlertData, path string) *CloudEvent {
	event := f.NewEvent(StockAlertRaised, "stock/"+data.ProductCode, data)
	event.Path = path
	event.FacilityID = data.FacilityID
	return event
}
