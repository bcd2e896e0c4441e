package report

import (
	"math"
	"testing"
)

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"round to 6 decimal places", 0.123456789, 0.123457},
		{"no rounding needed", 0.123456, 0.123456},
		{"round down", 0.1234564, 0.123456},
		{"zero", 0, 0},
		{"negative", -0.123456789, -0.123457},
		{"large number", 1234567.123456789, 1234567.123457},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundFloat(tt.input); got != tt.want {
				t.Errorf("RoundFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{1.5, "1.5"},
		{2, "2"},
		{0.1234567, "0.123457"},
		{100, "100"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.input); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
