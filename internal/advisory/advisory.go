// Package advisory turns a safety-adjusted time margin into the discrete
// pit-call status broadcast to consumers.
package advisory

// Status is the discrete advisory grade for a pit call.
type Status string

const (
	// StatusGreen: comfortable margin, no urgency.
	StatusGreen Status = "GREEN"
	// StatusAmber: margin shrinking, prepare the call.
	StatusAmber Status = "AMBER"
	// StatusRed: call immediately or lose the window.
	StatusRed Status = "RED"
	// StatusLockedOut: the call point has effectively passed for this lap.
	StatusLockedOut Status = "LOCKED_OUT"
)

// Classify grades a safety-adjusted time margin. The intervals partition the
// real line: lower bounds inclusive, upper bounds exclusive.
//
//	tSafe < 0            -> LOCKED_OUT
//	0 <= tSafe < redS    -> RED
//	redS <= tSafe < greenS -> AMBER
//	tSafe >= greenS      -> GREEN
func Classify(tSafe, redS, greenS float64) Status {
	switch {
	case tSafe < 0:
		return StatusLockedOut
	case tSafe < redS:
		return StatusRed
	case tSafe < greenS:
		return StatusAmber
	default:
		return StatusGreen
	}
}

// Packet is the advisory record pushed to every consumer once per accepted
// telemetry sample. Immutable once emitted.
type Packet struct {
	TCall        float64 `json:"t_call"`
	TSafe        float64 `json:"t_safe"`
	Status       Status  `json:"status"`
	LapDistanceM float64 `json:"lap_distance_m"`
	SpeedKPH     float64 `json:"speed_kph"`
}
