// Package engine runs the per-sample production cycle: validate, accumulate,
// integrate, classify, publish. One engine instance monitors one car on one
// circuit.
package engine

import (
	"context"
	"log"
	"strings"
	"sync/atomic"

	"pitcall-engine/internal/advisory"
	"pitcall-engine/internal/integrator"
	"pitcall-engine/internal/profile"
	"pitcall-engine/internal/telemetry"
	"pitcall-engine/internal/track"
	"pitcall-engine/internal/units"
)

// DefaultLookaheadM is the forward distance considered when building a speed
// profile. Generous enough to cover the call point from anywhere a call
// decision is still live.
const DefaultLookaheadM = 500.0

// Publisher receives every advisory packet the engine emits.
type Publisher interface {
	Publish(advisory.Packet)
}

// Engine owns the track configuration and the sliding sample window. All
// mutation happens on the Run goroutine, one sample fully processed before
// the next is accepted, so the accumulator needs no locking.
type Engine struct {
	cfg        track.Config
	acc        *profile.Accumulator
	pub        Publisher
	lookaheadM float64
	samples    chan telemetry.Sample

	processed atomic.Int64
	dropped   atomic.Int64

	// Logf reports dropped samples. Defaults to log.Printf; tests mute it.
	Logf func(format string, v ...interface{})
}

// New creates an engine for one car/track pairing. windowSize <= 0 and
// lookaheadM <= 0 select the defaults.
func New(cfg track.Config, pub Publisher, windowSize int, lookaheadM float64) *Engine {
	if lookaheadM <= 0 {
		lookaheadM = DefaultLookaheadM
	}
	return &Engine{
		cfg:        cfg,
		acc:        profile.NewAccumulator(windowSize),
		pub:        pub,
		lookaheadM: lookaheadM,
		samples:    make(chan telemetry.Sample),
		Logf:       log.Printf,
	}
}

// Config returns the track configuration the engine was built with.
func (e *Engine) Config() track.Config {
	return e.cfg
}

// Submit hands a sample to the Run loop, blocking until the loop accepts it
// or ctx is cancelled. Ingestion is push-driven; the telemetry source paces
// the engine.
func (e *Engine) Submit(ctx context.Context, s telemetry.Sample) error {
	select {
	case e.samples <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes submitted samples sequentially until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-e.samples:
			e.Process(s)
		}
	}
}

// Process executes one production cycle. A malformed sample is logged and
// dropped with the window untouched and nothing emitted; every accepted
// sample yields exactly one published packet. Process never fails upward:
// empty profiles, zero distances and negative margins are all absorbed by
// the integrator's fallbacks and the classifier.
func (e *Engine) Process(s telemetry.Sample) (advisory.Packet, bool) {
	if errs := telemetry.ValidateSample(&s); len(errs) > 0 {
		e.dropped.Add(1)
		e.Logf("dropping malformed sample (dist=%.1fm speed=%.1fkph): %s",
			s.LapDistanceM, s.SpeedKPH, strings.Join(errs, "; "))
		return advisory.Packet{}, false
	}

	e.acc.AddSample(s.LapDistanceM, s.SpeedKPH)

	// An externally supplied profile is authoritative for this cycle; the
	// internally accumulated window is the fallback.
	var src profile.Source = e.acc
	if len(s.SpeedProfile) > 0 {
		src = profile.Static(s.SpeedProfile)
	}
	prof := src.Profile(s.LapDistanceM, e.lookaheadM)

	tCall := integrator.Estimate(s.LapDistanceM, e.cfg.CallPointM(), prof, units.KPHToMPS(s.SpeedKPH))
	tSafe := tCall - e.cfg.BufferS

	pkt := advisory.Packet{
		TCall:        tCall,
		TSafe:        tSafe,
		Status:       advisory.Classify(tSafe, e.cfg.RedS, e.cfg.GreenS),
		LapDistanceM: s.LapDistanceM,
		SpeedKPH:     s.SpeedKPH,
	}

	e.pub.Publish(pkt)
	e.processed.Add(1)
	return pkt, true
}

// Reset clears the sample window, e.g. between sessions.
func (e *Engine) Reset() {
	e.acc.Reset()
}

// WindowLen reports the accumulator's current occupancy.
func (e *Engine) WindowLen() int {
	return e.acc.Len()
}

// Stats returns how many samples were processed and dropped so far.
func (e *Engine) Stats() (processed, dropped int64) {
	return e.processed.Load(), e.dropped.Load()
}
