package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertKind classifies the supply situation that raised an alert.
type AlertKind string

const (
	AlertOutOfStock      AlertKind = "OUT_OF_STOCK"
	AlertCriticalStock   AlertKind = "CRITICAL_STOCK"
	AlertLowStock        AlertKind = "LOW_STOCK"
	AlertSufficientStock AlertKind = "SUFFICIENT_STOCK"
)

// Severity grades how urgently an alert needs attention.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityUrgent   Severity = "URGENT"
	SeverityHigh     Severity = "HIGH"
	SeverityNormal   Severity = "NORMAL"
)

// ClassifySupply maps days of supply onto an alert kind and severity.
// Bands are non-overlapping and lower-bound inclusive. Negative input is
// invalid state and never classified.
func ClassifySupply(daysOfSupply float64) (AlertKind, Severity, error) {
	switch {
	case daysOfSupply < 0:
		return "", "", ErrNegativeSupply
	case daysOfSupply == 0:
		return AlertOutOfStock, SeverityCritical, nil
	case daysOfSupply < 0.5:
		return AlertCriticalStock, SeverityCritical, nil
	case daysOfSupply < 1.0:
		return AlertCriticalStock, SeverityUrgent, nil
	case daysOfSupply < 2.0:
		return AlertLowStock, SeverityHigh, nil
	default:
		return AlertSufficientStock, SeverityNormal, nil
	}
}

// AlertEvent is the transient description of a single breach detection.
// Immutable after creation; the persisted form is AlertRecord.
type AlertEvent struct {
	Kind            AlertKind `json:"kind"`
	Severity        Severity  `json:"severity"`
	FacilityID      string    `json:"facilityId"`
	ProductCode     string    `json:"productCode"`
	CountUnits      float64   `json:"countUnits"`
	ConsumptionRate float64   `json:"consumptionRate"`
	DaysOfSupply    float64   `json:"daysOfSupply"`
	Threshold       float64   `json:"threshold"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewAlertEvent classifies the stock state and builds the alert event.
func NewAlertEvent(stock *StockRecord) (*AlertEvent, error) {
	kind, severity, err := ClassifySupply(stock.DaysOfSupply)
	if err != nil {
		return nil, err
	}
	return &AlertEvent{
		Kind:            kind,
		Severity:        severity,
		FacilityID:      stock.FacilityID,
		ProductCode:     stock.ProductCode,
		CountUnits:      stock.CountUnits,
		ConsumptionRate: stock.ConsumptionRate,
		DaysOfSupply:    stock.DaysOfSupply,
		Threshold:       stock.ReorderThreshold,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// AlertRecord is the persisted form of an AlertEvent. Acknowledgement and
// resolution happen through operator action, not the evaluation loop.
type AlertRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind            AlertKind          `bson:"kind" json:"kind"`
	Severity        Severity           `bson:"severity" json:"severity"`
	FacilityID      string             `bson:"facilityId" json:"facilityId"`
	ProductCode     string             `bson:"productCode" json:"productCode"`
	CountUnits      float64            `bson:"countUnits" json:"countUnits"`
	ConsumptionRate float64            `bson:"consumptionRate" json:"consumptionRate"`
	DaysOfSupply    float64            `bson:"daysOfSupply" json:"daysOfSupply"`
	Threshold       float64            `bson:"threshold" json:"threshold"`
	Acknowledged    bool               `bson:"acknowledged" json:"acknowledged"`
	AcknowledgedAt  *time.Time         `bson:"acknowledgedAt,omitempty" json:"acknowledgedAt,omitempty"`
	ResolvedAt      *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewAlertRecord builds the persisted record from a transient event.
func NewAlertRecord(event *AlertEvent) *AlertRecord {
	return &AlertRecord{
		Kind:            event.Kind,
		Severity:        event.Severity,
		FacilityID:      event.FacilityID,
		ProductCode:     event.ProductCode,
		CountUnits:      event.CountUnits,
		ConsumptionRate: event.ConsumptionRate,
		DaysOfSupply:    event.DaysOfSupply,
		Threshold:       event.Threshold,
		CreatedAt:       event.CreatedAt,
	}
}

// Acknowledge marks the alert as seen by an operator.
func (a *AlertRecord) Acknowledge() {
	if a.Acknowledged {
		return
	}
	now := time.Now().UTC()
	a.Acknowledged = true
	a.AcknowledgedAt = &now
}

// Resolve marks the alert as resolved.
func (a *AlertRecord) Resolve() {
	if a.ResolvedAt != nil {
		return
	}
	now := time.Now().UTC()
	a.ResolvedAt = &now
}
