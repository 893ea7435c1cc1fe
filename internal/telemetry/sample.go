// Package telemetry defines the inbound sample record and the tooling around
// it: JSON decoding, validation, lap-file parsing and synthetic generation.
package telemetry

import (
	"encoding/json"
	"fmt"

	"pitcall-engine/internal/profile"
)

// Sample is a single telemetry reading from the car. The optional
// SpeedProfile is an externally pre-computed profile (sorted ascending by
// x_m) which, when present, is authoritative for that cycle's integration.
type Sample struct {
	LapDistanceM float64         `json:"lap_distance_m"`
	SpeedKPH     float64         `json:"speed_kph"`
	SpeedProfile profile.Profile `json:"speed_profile,omitempty"`
}

// Decode parses one JSON-encoded sample as received on the telemetry socket.
func Decode(data []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return Sample{}, fmt.Errorf("invalid telemetry JSON: %w", err)
	}
	return s, nil
}

// ValidateSample returns the list of problems with a sample. An empty list
// means the sample is usable.
func ValidateSample(s *Sample) []string {
	var errors []string

	if s.LapDistanceM < 0 {
		errors = append(errors, "lap_distance_m cannot be negative")
	}
	if s.SpeedKPH < 0 {
		errors = append(errors, "speed_kph cannot be negative")
	}
	for i := 1; i < len(s.SpeedProfile); i++ {
		if s.SpeedProfile[i].XM <= s.SpeedProfile[i-1].XM {
			errors = append(errors, "speed_profile must be sorted ascending by x_m")
			break
		}
	}

	return errors
}
