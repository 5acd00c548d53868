package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocular-mosaic/internal/mosaic"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "data/samples.db", c.DB)
	assert.Equal(t, "grid", c.DefaultPreset)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, 30*time.Second, c.PollInterval)

	pc, err := c.Preset("grid")
	require.NoError(t, err)
	assert.Equal(t, mosaic.Presets()["grid"], pc)
}

func TestParsePresets(t *testing.T) {
	c, err := Parse([]byte(`
db: /var/lib/mosaic/samples.db
workers: 4
poll_interval: 5s
default_preset: quick-grid
presets:
  quick-grid:
    base: grid
    max_frames: 25
    contact_sheet: true
  grid:
    border: 0
  loose:
    max_hamming: 10
`))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/mosaic/samples.db", c.DB)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 5*time.Second, c.PollInterval)

	quick, err := c.Preset("quick-grid")
	require.NoError(t, err)
	assert.Equal(t, 25, quick.MaxFrames)
	assert.True(t, quick.ContactSheet)
	assert.Equal(t, 2, quick.Border)
	assert.True(t, quick.Crop)

	// Overriding a built-in starts from that built-in.
	grid, err := c.Preset("grid")
	require.NoError(t, err)
	assert.Equal(t, 0, grid.Border)
	assert.Equal(t, mosaic.StrategyGrid, grid.Strategy)

	loose, err := c.Preset("loose")
	require.NoError(t, err)
	assert.Equal(t, 10, loose.MaxHamming)
	assert.Equal(t, mosaic.DefaultConfig().MaxFrames, loose.MaxFrames)

	circular, err := c.Preset("circular")
	require.NoError(t, err)
	assert.Equal(t, mosaic.StrategyGeometric, circular.Strategy)

	assert.Equal(t, []string{"circular", "cropped", "grid", "loose", "quick-grid"}, c.PresetNames())
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown top-level key":  "dbpath: x.db\n",
		"unknown preset key":     "presets:\n  p:\n    max_framez: 3\n",
		"unknown base":           "presets:\n  p:\n    base: spiral\n",
		"invalid preset":         "presets:\n  p:\n    jpeg_quality: 400\n",
		"unknown default preset": "default_preset: nope\n",
		"bad strategy":           "presets:\n  p:\n    strategy: spiral\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "grid", c.DefaultPreset)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosaic.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\n"), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Workers)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
