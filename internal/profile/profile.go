// Package profile maintains the sliding window of recent telemetry and
// derives position-ordered speed profiles from it for time integration.
package profile

import "sort"

// Entry is one point of a speed profile: the speed observed at a lap distance.
type Entry struct {
	XM   float64 `json:"x_m"`
	VMPS float64 `json:"v_mps"`
}

// Profile is a speed-over-position curve, sorted strictly ascending by XM
// with no duplicate positions. A profile with fewer than two entries carries
// too little shape to integrate; callers fall back to a point estimate.
type Profile []Entry

// Source produces a profile covering [currentM, currentM+lookaheadM].
// Implementations return nil when they cannot cover the range with at least
// two entries; that is "insufficient data", not an error.
type Source interface {
	Profile(currentM, lookaheadM float64) Profile
}

// Static wraps an externally supplied, pre-sorted profile (for example one
// attached to an inbound telemetry sample) as a Source.
type Static Profile

// Profile returns the wrapped entries that fall inside the lookahead range,
// or nil when fewer than two do.
func (s Static) Profile(currentM, lookaheadM float64) Profile {
	return clip(Profile(s), currentM, currentM+lookaheadM)
}

// clip filters entries to [minX, maxX], deduplicates positions keeping the
// later occurrence, and returns the result sorted ascending. Fewer than two
// surviving entries yields nil.
func clip(entries Profile, minX, maxX float64) Profile {
	var out Profile
	index := make(map[float64]int)
	for _, e := range entries {
		if e.XM < minX || e.XM > maxX {
			continue
		}
		if i, ok := index[e.XM]; ok {
			out[i] = e // last writer wins
			continue
		}
		index[e.XM] = len(out)
		out = append(out, e)
	}
	if len(out) < 2 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XM < out[j].XM })
	return out
}
