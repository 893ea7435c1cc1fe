// Package track holds the static per-circuit configuration: where the pit
// entry sits, how far before it the radio call must go out, and the timing
// margins used to grade an advisory.
package track

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default advisory thresholds in seconds. Individual circuits may override
// them in their config file; most leave them alone.
const (
	DefaultRedS   = 2.0
	DefaultGreenS = 5.0
)

// Config describes a single circuit. It is loaded once at startup and never
// mutated afterwards; the engine, integrator and classifier all read it.
type Config struct {
	PitEntryM   float64 `json:"pit_entry_m"`
	CallOffsetM float64 `json:"call_offset_m"`
	BufferS     float64 `json:"buffer_s"`

	// Optional per-circuit advisory thresholds. Zero means "use default".
	RedS   float64 `json:"red_s,omitempty"`
	GreenS float64 `json:"green_s,omitempty"`
}

// Load reads and validates a track configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read track config: %w", err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("invalid track config JSON: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid track config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.RedS <= 0 {
		c.RedS = DefaultRedS
	}
	if c.GreenS <= 0 {
		c.GreenS = DefaultGreenS
	}
}

// Validate checks the invariants a loaded config must satisfy.
func (c Config) Validate() error {
	if c.PitEntryM < 0 {
		return fmt.Errorf("pit_entry_m must be >= 0, got %v", c.PitEntryM)
	}
	if c.CallOffsetM < 0 {
		return fmt.Errorf("call_offset_m must be >= 0, got %v", c.CallOffsetM)
	}
	if c.BufferS < 0 {
		return fmt.Errorf("buffer_s must be >= 0, got %v", c.BufferS)
	}
	if c.CallOffsetM > c.PitEntryM {
		return fmt.Errorf("call_offset_m (%v) cannot exceed pit_entry_m (%v)", c.CallOffsetM, c.PitEntryM)
	}
	if c.RedS >= c.GreenS {
		return fmt.Errorf("red_s (%v) must be below green_s (%v)", c.RedS, c.GreenS)
	}
	return nil
}

// CallPointM is the lap distance at which the pit call should ideally be made.
func (c Config) CallPointM() float64 {
	return c.PitEntryM - c.CallOffsetM
}
