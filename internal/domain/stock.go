package domain

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for the stock aggregate
var (
	ErrInvalidConsumptionRate = errors.New("consumption rate must be greater than zero")
	ErrNegativeCount          = errors.New("stock count must not be negative")
	ErrNegativeSupply         = errors.New("days of supply must not be negative")
)

// DefaultReorderThreshold is the days-of-supply level below which the
// facility should reorder, unless overridden by configuration.
const DefaultReorderThreshold = 2.0

// StockRecord holds the perishable-inventory counter for one facility.
// It is mutated only by the evaluation/update path; concurrent writers are
// serialized by the storage layer.
type StockRecord struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FacilityID       string             `bson:"facilityId" json:"facilityId"`
	ProductCode      string             `bson:"productCode" json:"productCode"`
	CountUnits       float64            `bson:"countUnits" json:"countUnits"`
	ConsumptionRate  float64            `bson:"consumptionRate" json:"consumptionRate"`
	DaysOfSupply     float64            `bson:"daysOfSupply" json:"daysOfSupply"`
	ReorderThreshold float64            `bson:"reorderThreshold" json:"reorderThreshold"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewStockRecord creates a stock record and derives its days of supply.
func NewStockRecord(facilityID, productCode string, countUnits, consumptionRate, reorderThreshold float64) (*StockRecord, error) {
	days, err := ComputeDaysOfSupply(countUnits, consumptionRate)
	if err != nil {
		return nil, err
	}
	if reorderThreshold <= 0 {
		reorderThreshold = DefaultReorderThreshold
	}
	return &StockRecord{
		FacilityID:       facilityID,
		ProductCode:      productCode,
		CountUnits:       countUnits,
		ConsumptionRate:  consumptionRate,
		DaysOfSupply:     days,
		ReorderThreshold: reorderThreshold,
		UpdatedAt:        time.Now().UTC(),
	}, nil
}

// ComputeDaysOfSupply derives days of supply from the counter, rounded to
// two decimals. A zero or negative consumption rate is an error condition,
// not a zero-division default.
func ComputeDaysOfSupply(countUnits, consumptionRate float64) (float64, error) {
	if countUnits < 0 {
		return 0, ErrNegativeCount
	}
	if consumptionRate <= 0 {
		return 0, ErrInvalidConsumptionRate
	}
	return round2(countUnits / consumptionRate), nil
}

// Update applies a new count and consumption rate, rederiving days of supply.
func (s *StockRecord) Update(countUnits, consumptionRate float64) error {
	days, err := ComputeDaysOfSupply(countUnits, consumptionRate)
	if err != nil {
		return err
	}
	s.CountUnits = countUnits
	s.ConsumptionRate = consumptionRate
	s.DaysOfSupply = days
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Breached reports whether days of supply has fallen below the configured
// reorder threshold. This predicate is independent of the severity bands in
// ClassifySupply and stays explicitly parameterized.
func Breached(daysOfSupply, threshold float64) bool {
	return daysOfSupply < threshold
}

// IsBreached applies the record's own threshold.
func (s *StockRecord) IsBreached() bool {
	return Breached(s.DaysOfSupply, s.ReorderThreshold)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
