package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for order commands and records
var (
	ErrInvalidPriority  = errors.New("invalid order priority")
	ErrInvalidQuantity  = errors.New("order quantity must be greater than zero")
	ErrMissingCommandID = errors.New("order command id is required")
	ErrMissingOrderID   = errors.New("order id is required")
	ErrMissingFacility  = errors.New("facility id is required")
	ErrMissingProduct   = errors.New("product code is required")
	ErrDuplicateCommand = errors.New("order command already processed")
)

// Priority represents replenishment-order priority levels.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
)

// IsValid checks if the priority is valid.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal:
		return true
	default:
		return false
	}
}

// OrderStatus represents the lifecycle state of a replenishment order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusReceived  OrderStatus = "RECEIVED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

// ReplenishmentTargetDays is the supply target a triggered order covers.
const ReplenishmentTargetDays = 5

// OrderCommand is an inbound replenishment-order command from either
// delivery path. CommandID is the idempotency key; duplicate delivery is
// expected and rejected at the storage layer.
type OrderCommand struct {
	CommandID             string    `json:"commandId" validate:"required"`
	OrderID               string    `json:"orderId" validate:"required"`
	FacilityID            string    `json:"facilityId" validate:"required"`
	ProductCode           string    `json:"productCode" validate:"required"`
	Quantity              int       `json:"quantity" validate:"required,gt=0"`
	Priority              Priority  `json:"priority,omitempty" validate:"omitempty,oneof=URGENT HIGH NORMAL"`
	EstimatedDeliveryDate time.Time `json:"estimatedDeliveryDate,omitempty"`
}

// Validate checks required fields and value ranges. A failed check aborts
// ingestion before any write.
func (c *OrderCommand) Validate() error {
	switch {
	case c.CommandID == "":
		return ErrMissingCommandID
	case c.OrderID == "":
		return ErrMissingOrderID
	case c.FacilityID == "":
		return ErrMissingFacility
	case c.ProductCode == "":
		return ErrMissingProduct
	case c.Quantity <= 0:
		return ErrInvalidQuantity
	}
	if c.Priority != "" && !c.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, c.Priority)
	}
	return nil
}

// OrderRecord is the persisted form of an accepted OrderCommand, tagged with
// the delivery path that produced it. Exactly one record exists per distinct
// CommandID; the unique index on commandId enforces that.
type OrderRecord struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CommandID             string             `bson:"commandId" json:"commandId"`
	OrderID               string             `bson:"orderId" json:"orderId"`
	FacilityID            string             `bson:"facilityId" json:"facilityId"`
	ProductCode           string             `bson:"productCode" json:"productCode"`
	Quantity              int                `bson:"quantity" json:"quantity"`
	Priority              Priority           `bson:"priority" json:"priority"`
	Status                OrderStatus        `bson:"status" json:"status"`
	Path                  Path               `bson:"path" json:"path"`
	EstimatedDeliveryDate time.Time          `bson:"estimatedDeliveryDate,omitempty" json:"estimatedDeliveryDate,omitempty"`
	ReceivedAt            time.Time          `bson:"receivedAt" json:"receivedAt"`
}

// NewOrderRecord builds the persisted record for an accepted command.
func NewOrderRecord(cmd *OrderCommand, path Path) (*OrderRecord, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	priority := cmd.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return &OrderRecord{
		CommandID:             cmd.CommandID,
		OrderID:               cmd.OrderID,
		FacilityID:            cmd.FacilityID,
		ProductCode:           cmd.ProductCode,
		Quantity:              cmd.Quantity,
		Priority:              priority,
		Status:                OrderStatusReceived,
		Path:                  path,
		EstimatedDeliveryDate: cmd.EstimatedDeliveryDate,
		ReceivedAt:            time.Now().UTC(),
	}, nil
}

// ReplenishmentQuantity derives the order quantity for a triggered order:
// five days of the current consumption rate, rounded up to the nearest
// multiple of ten.
func ReplenishmentQuantity(consumptionRate float64) int {
	units := consumptionRate * ReplenishmentTargetDays
	return int(math.Ceil(units/10) * 10)
}

// ReplenishmentPriority derives the order priority from the remaining days
// of supply at dispatch time.
func ReplenishmentPriority(daysOfSupply float64) Priority {
	switch {
	case daysOfSupply < 1.0:
		return PriorityUrgent
	case daysOfSupply < 2.0:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
