package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEventType identifies what kind of delivery attempt is being recorded.
// This set is the contract the comparison tooling relies on; it must not
// change shape between paths.
type AuditEventType string

const (
	AuditStockUpdateSent AuditEventType = "STOCK_UPDATE_SENT"
	AuditEventPublished  AuditEventType = "EVENT_PUBLISHED"
	AuditOrderReceived   AuditEventType = "ORDER_RECEIVED"
)

// Direction indicates whether the recorded traffic left or entered the system.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
)

// AuditStatus is the terminal result of the recorded attempt.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailure AuditStatus = "FAILURE"
)

// AuditEvent is an append-only record of one delivery attempt sequence.
// Path is mandatory and has no default.
type AuditEvent struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventType    AuditEventType     `bson:"eventType" json:"eventType"`
	Direction    Direction          `bson:"direction" json:"direction"`
	Path         Path               `bson:"path" json:"path"`
	Payload      string             `bson:"payload,omitempty" json:"payload,omitempty"`
	Status       AuditStatus        `bson:"status" json:"status"`
	LatencyMs    int64              `bson:"latencyMs,omitempty" json:"latencyMs,omitempty"`
	ErrorMessage string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
}

// NewAuditEvent builds an audit event stamped with the current time.
func NewAuditEvent(eventType AuditEventType, direction Direction, path Path, status AuditStatus) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		Direction: direction,
		Path:      path,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// WithLatency attaches the measured wall-clock latency.
func (e *AuditEvent) WithLatency(latency time.Duration) *AuditEvent {
	e.LatencyMs = latency.Milliseconds()
	return e
}

// WithPayload attaches a serialized payload snapshot.
func (e *AuditEvent) WithPayload(payload string) *AuditEvent {
	e.Payload = payload
	return e
}

// WithError attaches the terminal error text.
func (e *AuditEvent) WithError(err error) *AuditEvent {
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	return e
}

// PathComparison summarizes audit outcomes for one delivery path. Feeding
// the comparative measurement is the whole point of provenance tagging.
type PathComparison struct {
	Path         Path    `json:"path"`
	Total        int64   `json:"total"`
	Successes    int64   `json:"successes"`
	Failures     int64   `json:"failures"`
	SuccessRatio float64 `json:"successRatio"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}
