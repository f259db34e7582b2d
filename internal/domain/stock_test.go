package domain

import (
	"errors"
	"testing"
)

func TestComputeDaysOfSupply(t *testing.T) {
	tests := []struct {
		name            string
		countUnits      float64
		consumptionRate float64
		want            float64
		wantErr         error
	}{
		{"whole days", 100, 10, 10, nil},
		{"rounds to two decimals", 100, 3, 33.33, nil},
		{"rounds half up", 10, 3, 3.33, nil},
		{"zero count is zero days", 0, 5, 0, nil},
		{"fractional rate", 1, 0.4, 2.5, nil},
		{"negative count is rejected", -1, 5, 0, ErrNegativeCount},
		{"zero rate is rejected", 100, 0, 0, ErrInvalidConsumptionRate},
		{"negative rate is rejected", 100, -2, 0, ErrInvalidConsumptionRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDaysOfSupply(tt.countUnits, tt.consumptionRate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ComputeDaysOfSupply() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ComputeDaysOfSupply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBreached(t *testing.T) {
	tests := []struct {
		name         string
		daysOfSupply float64
		threshold    float64
		want         bool
	}{
		{"well below threshold", 0.5, 2.0, true},
		{"just below threshold", 1.99, 2.0, true},
		{"exactly at threshold is not breached", 2.0, 2.0, false},
		{"above threshold", 3.0, 2.0, false},
		{"zero supply", 0, 2.0, true},
		{"custom threshold", 2.5, 3.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Breached(tt.daysOfSupply, tt.threshold); got != tt.want {
				t.Errorf("Breached(%v, %v) = %v, want %v", tt.daysOfSupply, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestNewStockRecord(t *testing.T) {
	t.Run("derives days of supply", func(t *testing.T) {
		stock, err := NewStockRecord("FAC-001", "MILK-1L", 30, 20, 2.0)
		if err != nil {
			t.Fatalf("NewStockRecord() error = %v, want nil", err)
		}
		if stock.DaysOfSupply != 1.5 {
			t.Errorf("DaysOfSupply = %v, want 1.5", stock.DaysOfSupply)
		}
		if !stock.IsBreached() {
			t.Error("IsBreached() = false, want true")
		}
	})

	t.Run("defaults the reorder threshold", func(t *testing.T) {
		stock, err := NewStockRecord("FAC-001", "MILK-1L", 100, 10, 0)
		if err != nil {
			t.Fatalf("NewStockRecord() error = %v, want nil", err)
		}
		if stock.ReorderThreshold != DefaultReorderThreshold {
			t.Errorf("ReorderThreshold = %v, want %v", stock.ReorderThreshold, DefaultReorderThreshold)
		}
	})

	t.Run("rejects invalid counter state", func(t *testing.T) {
		if _, err := NewStockRecord("FAC-001", "MILK-1L", -5, 10, 2.0); !errors.Is(err, ErrNegativeCount) {
			t.Errorf("error = %v, want ErrNegativeCount", err)
		}
	})
}

func TestStockRecord_Update(t *testing.T) {
	stock, err := NewStockRecord("FAC-001", "MILK-1L", 100, 10, 2.0)
	if err != nil {
		t.Fatalf("NewStockRecord() error = %v", err)
	}

	if err := stock.Update(15, 10); err != nil {
		t.Fatalf("Update() error = %v, want nil", err)
	}
	if stock.DaysOfSupply != 1.5 {
		t.Errorf("DaysOfSupply = %v, want 1.5", stock.DaysOfSupply)
	}

	// A failed update leaves the record untouched.
	if err := stock.Update(-1, 10); !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("Update() error = %v, want ErrNegativeCount", err)
	}
	if stock.CountUnits != 15 {
		t.Errorf("CountUnits = %v, want 15 after failed update", stock.CountUnits)
	}
}
