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
		{"two decimals unchanged", 10.25, 10.25},
		{"rounds up", 10.255, 10.26},
		{"rounds down", 10.254, 10.25},
		{"negative half away from zero", -10.255, -10.26},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round(tt.input); got != tt.expected {
				t.Errorf("Round(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRoundCount(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{79.5, 80},
		{79.4, 79},
		{0.5, 1},
		{-0.4, 0},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundCount(tt.input); got != tt.expected {
			t.Errorf("RoundCount(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestFinite(t *testing.T) {
	if got := Finite(math.NaN()); got != 0 {
		t.Errorf("Finite(NaN) = %v, want 0", got)
	}
	if got := Finite(math.Inf(1)); got != 0 {
		t.Errorf("Finite(+Inf) = %v, want 0", got)
	}
	if got := Finite(math.Inf(-1)); got != 0 {
		t.Errorf("Finite(-Inf) = %v, want 0", got)
	}
	if got := Finite(42.5); got != 42.5 {
		t.Errorf("Finite(42.5) = %v, want 42.5", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name          string
		val, min, max float64
		expected      float64
	}{
		{"inside range", 50, 0, 100, 50},
		{"below min", -5, 0, 100, 0},
		{"above max", 150, 0, 100, 100},
		{"at min", 0, 0, 100, 0},
		{"at max", 100, 0, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.val, tt.min, tt.max); got != tt.expected {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.val, tt.min, tt.max, got, tt.expected)
			}
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	if got := CalculatePercentage(25, 100); got != 25 {
		t.Errorf("CalculatePercentage(25, 100) = %v, want 25", got)
	}
	if got := CalculatePercentage(10, 0); got != 0 {
		t.Errorf("CalculatePercentage with zero total = %v, want 0", got)
	}
}

func TestApplyPercentage(t *testing.T) {
	if got := ApplyPercentage(100000, 10); got != 10000 {
		t.Errorf("ApplyPercentage(100000, 10) = %v, want 10000", got)
	}
}
