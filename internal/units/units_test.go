package units

import (
	"math"
	"testing"
)

func TestKPHToMPS(t *testing.T) {
	tests := []struct {
		name     string
		kph      float64
		expected float64
	}{
		{"zero", 0.0, 0.0},
		{"walking pace", 3.6, 1.0},
		{"city speed", 90.0, 25.0},
		{"race speed", 187.3, 52.02777777777778},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := KPHToMPS(tt.kph)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("KPHToMPS(%v) = %v, want %v", tt.kph, result, tt.expected)
			}
		})
	}
}

func TestMPSToKPHRoundTrip(t *testing.T) {
	for _, kph := range []float64{0, 1, 52.3, 187.3, 340.0} {
		got := MPSToKPH(KPHToMPS(kph))
		if math.Abs(got-kph) > 1e-9 {
			t.Errorf("round trip of %v kph = %v", kph, got)
		}
	}
}

func TestFloorMPS(t *testing.T) {
	tests := []struct {
		name     string
		mps      float64
		expected float64
	}{
		{"zero clamps", 0.0, SpeedFloorMPS},
		{"negative clamps", -3.0, SpeedFloorMPS},
		{"just below floor", 0.49, SpeedFloorMPS},
		{"at floor", 0.5, 0.5},
		{"above floor", 52.0, 52.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := FloorMPS(tt.mps); result != tt.expected {
				t.Errorf("FloorMPS(%v) = %v, want %v", tt.mps, result, tt.expected)
			}
		})
	}
}
