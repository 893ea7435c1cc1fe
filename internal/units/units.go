// Package units provides speed unit conversions shared across the engine.
// Telemetry arrives in km/h; all integration math runs in m/s.
package units

// SpeedFloorMPS is the minimum speed used whenever a measured speed appears
// in a denominator. A car crawling (or a glitched zero-speed sample) would
// otherwise produce absurd or infinite time estimates.
const SpeedFloorMPS = 0.5

// KPHToMPS converts a speed from km/h to m/s.
func KPHToMPS(kph float64) float64 {
	return kph / 3.6
}

// MPSToKPH converts a speed from m/s to km/h.
func MPSToKPH(mps float64) float64 {
	return mps * 3.6
}

// FloorMPS clamps a speed in m/s to SpeedFloorMPS.
func FloorMPS(mps float64) float64 {
	if mps < SpeedFloorMPS {
		return SpeedFloorMPS
	}
	return mps
}
