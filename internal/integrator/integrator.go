// Package integrator estimates the time for the car to reach a target lap
// distance by integrating 1/v(x) over the covered span of a speed profile.
package integrator

import (
	"sort"

	"gonum.org/v1/gonum/integrate"

	"pitcall-engine/internal/profile"
	"pitcall-engine/internal/units"
)

// Estimate returns the estimated seconds until the car at currentM reaches
// targetM, given a speed profile covering (some of) the span.
//
// Past or at the target the answer is exactly 0. With fewer than two profile
// entries there is no curve to integrate, so the estimate degrades to
// distance over a single known speed: the lone profile entry's if one exists,
// otherwise lastSpeedMPS (normally the current sample's speed). Every speed
// that ends up in a denominator is clamped to units.SpeedFloorMPS first.
//
// The function is pure: identical inputs produce bit-identical output.
func Estimate(currentM, targetM float64, prof profile.Profile, lastSpeedMPS float64) float64 {
	if targetM <= currentM {
		return 0
	}

	if len(prof) < 2 {
		v := lastSpeedMPS
		if len(prof) == 1 {
			v = prof[0].VMPS
		}
		return (targetM - currentM) / units.FloorMPS(v)
	}

	// Breakpoints: profile positions strictly inside the span, plus both
	// endpoints. The profile is sorted and duplicate-free, so xs is strictly
	// increasing by construction.
	xs := make([]float64, 0, len(prof)+2)
	xs = append(xs, currentM)
	for _, e := range prof {
		if e.XM > currentM && e.XM < targetM {
			xs = append(xs, e.XM)
		}
	}
	xs = append(xs, targetM)

	// Integrand is 1/v(x) with the speed floor applied per breakpoint.
	fs := make([]float64, len(xs))
	for i, x := range xs {
		fs[i] = 1 / units.FloorMPS(speedAt(prof, x))
	}

	return integrate.Trapezoidal(xs, fs)
}

// speedAt linearly interpolates the profile speed at position x. Outside the
// profile's covered range it clamps to the nearest entry's speed.
func speedAt(prof profile.Profile, x float64) float64 {
	if x <= prof[0].XM {
		return prof[0].VMPS
	}
	last := len(prof) - 1
	if x >= prof[last].XM {
		return prof[last].VMPS
	}

	// First entry with XM >= x; its predecessor brackets x from below.
	i := sort.Search(len(prof), func(i int) bool { return prof[i].XM >= x })
	if prof[i].XM == x {
		return prof[i].VMPS
	}
	lo, hi := prof[i-1], prof[i]
	frac := (x - lo.XM) / (hi.XM - lo.XM)
	return lo.VMPS + frac*(hi.VMPS-lo.VMPS)
}
