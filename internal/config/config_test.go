package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrsinham/dicomraw/internal/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, volume.DefaultOrientationTolerance, cfg.Geometry.OrientationTolerance)
	assert.Equal(t, 6, cfg.Preview.Rows)

	rng, err := cfg.SelectionRange()
	require.NoError(t, err)
	assert.Nil(t, rng)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "dicomraw.yaml", `
input:
  dir: /data/series1
  workers: 4
selection:
  range: "10:40"
output:
  raw: head.raw
  header: true
  preview: head.png
geometry:
  spacing_tolerance: 0.05
limits:
  max_volume_size: 512MB
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/series1", cfg.Input.Dir)
	assert.Equal(t, 4, cfg.Input.Workers)
	assert.Equal(t, "head.raw", cfg.Output.Raw)
	assert.True(t, cfg.Output.Header)
	assert.Equal(t, 0.05, cfg.Geometry.SpacingTolerance)
	// Untouched keys keep their defaults.
	assert.Equal(t, volume.DefaultOrientationTolerance, cfg.Geometry.OrientationTolerance)
	assert.Equal(t, 128, cfg.Preview.TileSize)

	rng, err := cfg.SelectionRange()
	require.NoError(t, err)
	assert.Equal(t, &volume.Range{Start: 10, End: 40}, rng)

	limit, err := cfg.MaxVolumeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(512*1024*1024), limit)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "dicomraw.toml", `
[input]
dir = "scans"

[output]
raw = "out.raw"
depth_plot = "depths.png"

[preview]
rows = 4
cols = 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "scans", cfg.Input.Dir)
	assert.Equal(t, "depths.png", cfg.Output.DepthPlot)
	assert.Equal(t, 4, cfg.Preview.Rows)
	assert.Equal(t, 8, cfg.Preview.Cols)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad yaml", "c.yaml", "input: [unclosed"},
		{"bad toml", "c.toml", "[input\ndir ="},
		{"bad range", "c.yaml", "selection:\n  range: \"5:2\"\n"},
		{"bad size", "c.yaml", "limits:\n  max_volume_size: lots\n"},
		{"bad level", "c.yaml", "log:\n  level: chatty\n"},
		{"negative workers", "c.yaml", "input:\n  workers: -1\n"},
		{"zero tiles", "c.toml", "[preview]\ntile_size = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"cfg.yaml", "cfg.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Input.Dir = "series"
			cfg.Selection.Range = "0:12"
			cfg.Output.Raw = "vol.raw"

			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Save(cfg, path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}
