package telemetry

import (
	"math"
	"math/rand"
)

// GenerateLap produces a plausible synthetic lap for demos and tests: the car
// sweeps the full lap length at stepM intervals, slowing into three corner
// zones and running out to topSpeedKPH on the straights, with a little noise.
func GenerateLap(lapLengthM, stepM, topSpeedKPH float64, rng *rand.Rand) []Sample {
	if lapLengthM <= 0 || stepM <= 0 {
		return nil
	}
	if topSpeedKPH <= 0 {
		topSpeedKPH = 280
	}

	var samples []Sample
	for x := 0.0; x <= lapLengthM; x += stepM {
		frac := x / lapLengthM

		// Three corner complexes per lap: speed dips follow a raised cosine.
		corner := 0.5 + 0.5*math.Cos(2*math.Pi*3*frac)
		speed := topSpeedKPH * (0.35 + 0.65*corner)

		if rng != nil {
			speed += rng.NormFloat64() * 2.0
			if speed < 0 {
				speed = 0
			}
		}

		samples = append(samples, Sample{LapDistanceM: x, SpeedKPH: speed})
	}
	return samples
}
