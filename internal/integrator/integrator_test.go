package integrator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pitcall-engine/internal/profile"
)

func TestEstimateAtOrPastTarget(t *testing.T) {
	prof := profile.Profile{{XM: 0, VMPS: 50}, {XM: 100, VMPS: 50}}

	assert.Zero(t, Estimate(100, 100, prof, 50))
	assert.Zero(t, Estimate(150, 100, prof, 50))
	assert.Zero(t, Estimate(2600, 2520, nil, 52))
}

func TestEstimateConstantSpeedReducesToLinear(t *testing.T) {
	// Trapezoidal integration of a constant 1/v is exactly d/v.
	tests := []struct {
		name            string
		v               float64
		current, target float64
	}{
		{"20 mps over 100m", 20, 0, 100},
		{"52 mps over 70m", 52, 2450, 2520},
		{"slow crawl", 1.0, 10, 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prof profile.Profile
			for x := tt.current - 50; x <= tt.target+50; x += 25 {
				prof = append(prof, profile.Entry{XM: x, VMPS: tt.v})
			}
			got := Estimate(tt.current, tt.target, prof, tt.v)
			assert.InDelta(t, (tt.target-tt.current)/tt.v, got, 1e-9)
		})
	}
}

func TestEstimateFallbackSingleSample(t *testing.T) {
	// No profile: distance over the last known speed.
	got := Estimate(2450, 2520, nil, 187.3/3.6)
	assert.InDelta(t, 70.0/(187.3/3.6), got, 1e-9)

	// One-entry profile: that entry's speed wins over the handed-in one.
	prof := profile.Profile{{XM: 2460, VMPS: 40}}
	assert.InDelta(t, 70.0/40.0, Estimate(2450, 2520, prof, 60), 1e-9)
}

func TestEstimateSpeedFloor(t *testing.T) {
	// Near-stationary speeds are clamped to 0.5 m/s rather than blowing up.
	assert.InDelta(t, 100/0.5, Estimate(0, 100, nil, 0), 1e-9)
	assert.InDelta(t, 100/0.5, Estimate(0, 100, nil, -3), 1e-9)

	prof := profile.Profile{{XM: 0, VMPS: 0}, {XM: 100, VMPS: 0}}
	assert.InDelta(t, 100/0.5, Estimate(0, 100, prof, 50), 1e-9)
}

func TestEstimateInterpolatedEndpoints(t *testing.T) {
	// Speed ramps 10 -> 20 m/s over [0, 100]; starting mid-profile at 50m the
	// start speed interpolates to 15 m/s.
	prof := profile.Profile{{XM: 0, VMPS: 10}, {XM: 100, VMPS: 20}}

	got := Estimate(50, 100, prof, 999)
	want := 50 * 0.5 * (1.0/15.0 + 1.0/20.0)
	assert.InDelta(t, want, got, 1e-12)
}

func TestEstimateMultiSegment(t *testing.T) {
	prof := profile.Profile{
		{XM: 0, VMPS: 10},
		{XM: 50, VMPS: 15},
		{XM: 100, VMPS: 20},
	}

	want := 50*0.5*(1.0/10+1.0/15) + 50*0.5*(1.0/15+1.0/20)
	assert.InDelta(t, want, Estimate(0, 100, prof, 999), 1e-12)
}

func TestEstimateClampedExtensionBeyondProfile(t *testing.T) {
	// Profile covers [2400, 2450] but the target sits at 2520: the uncovered
	// stretch integrates at the clamped last-entry speed.
	prof := profile.Profile{
		{XM: 2400, VMPS: 51.2},
		{XM: 2425, VMPS: 52.1},
		{XM: 2450, VMPS: 52.0},
	}

	got := Estimate(2450, 2520, prof, 187.3/3.6)
	assert.InDelta(t, 70.0/52.0, got, 1e-9)

	// And it is not the naive estimate from the raw sample speed.
	assert.Greater(t, math.Abs(got-70.0/(187.3/3.6)), 1e-3)
}

func TestEstimateDeterministic(t *testing.T) {
	prof := profile.Profile{
		{XM: 100, VMPS: 31.7},
		{XM: 142, VMPS: 33.9},
		{XM: 188, VMPS: 30.2},
		{XM: 240, VMPS: 35.5},
	}
	first := Estimate(90, 260, prof, 30)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Estimate(90, 260, prof, 30))
	}
}
