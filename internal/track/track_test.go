package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{"pit_entry_m": 2700, "call_offset_m": 180, "buffer_s": 0.8}`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2700.0, c.PitEntryM)
	assert.Equal(t, 180.0, c.CallOffsetM)
	assert.Equal(t, 0.8, c.BufferS)
	assert.Equal(t, 2520.0, c.CallPointM())

	// Thresholds default when absent.
	assert.Equal(t, DefaultRedS, c.RedS)
	assert.Equal(t, DefaultGreenS, c.GreenS)
}

func TestLoadPerCircuitThresholds(t *testing.T) {
	path := writeConfig(t, `{"pit_entry_m": 5000, "call_offset_m": 250, "buffer_s": 1.2, "red_s": 1.5, "green_s": 4.0}`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, c.RedS)
	assert.Equal(t, 4.0, c.GreenS)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative pit entry", `{"pit_entry_m": -1, "call_offset_m": 0, "buffer_s": 0}`},
		{"negative call offset", `{"pit_entry_m": 100, "call_offset_m": -5, "buffer_s": 0}`},
		{"negative buffer", `{"pit_entry_m": 100, "call_offset_m": 10, "buffer_s": -0.5}`},
		{"offset beyond pit entry", `{"pit_entry_m": 100, "call_offset_m": 150, "buffer_s": 0}`},
		{"inverted thresholds", `{"pit_entry_m": 100, "call_offset_m": 10, "buffer_s": 0, "red_s": 6.0, "green_s": 5.0}`},
		{"not JSON", `pit_entry_m = 2700`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
