package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"round down", 1.234, 1.23},
		{"round up", 1.235, 1.24},
		{"negative", -1.236, -1.24},
		{"already rounded", 7000.00, 7000.00},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round(tt.input); got != tt.expected {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"exact zero", 0, true},
		{"within tolerance", 0.004, true},
		{"negative within tolerance", -0.004, true},
		{"a cent", 0.01, false},
		{"clearly nonzero", 1.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsZero(tt.input); got != tt.expected {
				t.Errorf("IsZero(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCompound(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		years    int
		expected float64
	}{
		{"zero years", 0.02, 0, 1.0},
		{"negative years", 0.02, -1, 1.0},
		{"one year", 0.02, 1, 1.02},
		{"two years", 0.02, 2, 1.0404},
		{"zero rate", 0, 5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compound(tt.rate, tt.years)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Compound(%v, %d) = %v, expected %v", tt.rate, tt.years, got, tt.expected)
			}
		})
	}
}
