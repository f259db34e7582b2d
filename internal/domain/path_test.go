package domain

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Path
		ok    bool
	}{
		{"sync", "SYNC", PathSync, true},
		{"async", "ASYNC", PathAsync, true},
		{"lowercase is rejected", "sync", "", false},
		{"mixed case is rejected", "Async", "", false},
		{"padded is rejected", " SYNC", "", false},
		{"empty is rejected", "", "", false},
		{"unknown is rejected", "BATCH", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if tt.ok {
				if err != nil {
					t.Fatalf("ParsePath(%q) error = %v, want nil", tt.input, err)
				}
				if got != tt.want {
					t.Errorf("ParsePath(%q) = %v, want %v", tt.input, got, tt.want)
				}
				return
			}
			if !errors.Is(err, ErrInvalidProvenance) {
				t.Errorf("ParsePath(%q) error = %v, want ErrInvalidProvenance", tt.input, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	for _, p := range AllPaths() {
		if err := ValidatePath(p); err != nil {
			t.Errorf("ValidatePath(%v) = %v, want nil", p, err)
		}
	}
	if err := ValidatePath(Path("")); !errors.Is(err, ErrInvalidProvenance) {
		t.Errorf("ValidatePath(\"\") = %v, want ErrInvalidProvenance", err)
	}
}
