package profile

import "pitcall-engine/internal/units"

// DefaultWindowSize is how many recent samples the accumulator retains when
// no explicit size is given.
const DefaultWindowSize = 50

// Accumulator keeps a bounded window of recent telemetry samples in arrival
// order and builds lookahead profiles from them.
//
// It is deliberately not safe for concurrent use: the engine loop is its sole
// owner and calls AddSample and Profile from the same goroutine, so no
// locking is needed.
type Accumulator struct {
	windowSize int
	window     []Entry
}

// NewAccumulator creates an accumulator holding up to windowSize samples.
// Non-positive sizes fall back to DefaultWindowSize.
func NewAccumulator(windowSize int) *Accumulator {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Accumulator{
		windowSize: windowSize,
		window:     make([]Entry, 0, windowSize),
	}
}

// AddSample appends a telemetry sample to the window, evicting the oldest
// sample once the window is full. Out-of-order or lap-wrapped positions are
// accepted as-is; a fresh lap simply ages the previous lap's samples out.
func (a *Accumulator) AddSample(lapDistanceM, speedKPH float64) {
	if len(a.window) >= a.windowSize {
		n := copy(a.window, a.window[1:])
		a.window = a.window[:n]
	}
	a.window = append(a.window, Entry{
		XM:   lapDistanceM,
		VMPS: units.KPHToMPS(speedKPH),
	})
}

// Profile returns the window samples with positions inside
// [currentM, currentM+lookaheadM], deduplicated by position (latest arrival
// wins) and sorted ascending. It returns nil when fewer than two samples fall
// in range. The read has no side effects; identical state and arguments give
// identical output.
func (a *Accumulator) Profile(currentM, lookaheadM float64) Profile {
	if len(a.window) < 2 {
		return nil
	}
	return clip(a.window, currentM, currentM+lookaheadM)
}

// Reset clears the window, e.g. at the start of a new session.
func (a *Accumulator) Reset() {
	a.window = a.window[:0]
}

// Len reports how many samples the window currently holds.
func (a *Accumulator) Len() int {
	return len(a.window)
}
