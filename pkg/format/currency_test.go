package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"zero", 0, "€0.00"},
		{"small", 7.5, "€7.50"},
		{"thousands", 7000, "€7,000.00"},
		{"millions", 1234567.89, "€1,234,567.89"},
		{"negative", -1234.56, "-€1,234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"zero", 0, "0.00"},
		{"thousands", 7000, "7,000.00"},
		{"negative", -1234.56, "-1,234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumericCurrency(tt.amount); got != tt.expected {
				t.Errorf("NumericCurrency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}
