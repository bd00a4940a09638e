// Package config loads dicomraw settings from YAML or TOML files.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mrsinham/dicomraw/internal/util"
	"github.com/mrsinham/dicomraw/internal/volume"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the command-line options.
type Config struct {
	Input struct {
		Dir     string `yaml:"dir" toml:"dir"`
		Workers int    `yaml:"workers" toml:"workers"`
	} `yaml:"input" toml:"input"`

	Selection struct {
		// Range is "start:end", half-open, over the ordered slices.
		Range string `yaml:"range" toml:"range"`
	} `yaml:"selection" toml:"selection"`

	Output struct {
		Raw       string `yaml:"raw" toml:"raw"`
		Header    bool   `yaml:"header" toml:"header"`
		Preview   string `yaml:"preview" toml:"preview"`
		DepthPlot string `yaml:"depth_plot" toml:"depth_plot"`
	} `yaml:"output" toml:"output"`

	Geometry struct {
		OrientationTolerance float64 `yaml:"orientation_tolerance" toml:"orientation_tolerance"`
		SkipOrientationCheck bool    `yaml:"skip_orientation_check" toml:"skip_orientation_check"`
		SpacingTolerance     float64 `yaml:"spacing_tolerance" toml:"spacing_tolerance"`
	} `yaml:"geometry" toml:"geometry"`

	Preview struct {
		Rows     int `yaml:"rows" toml:"rows"`
		Cols     int `yaml:"cols" toml:"cols"`
		TileSize int `yaml:"tile_size" toml:"tile_size"`
	} `yaml:"preview" toml:"preview"`

	Limits struct {
		// MaxVolumeSize is a size string such as "2GB"; empty means no limit.
		MaxVolumeSize string `yaml:"max_volume_size" toml:"max_volume_size"`
	} `yaml:"limits" toml:"limits"`

	Log struct {
		Level string `yaml:"level" toml:"level"`
	} `yaml:"log" toml:"log"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Input.Dir = "."
	cfg.Geometry.OrientationTolerance = volume.DefaultOrientationTolerance
	cfg.Geometry.SpacingTolerance = volume.DefaultSpacingTolerance
	cfg.Preview.Rows = 6
	cfg.Preview.Cols = 6
	cfg.Preview.TileSize = 128
	cfg.Limits.MaxVolumeSize = "4GB"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path over the defaults. Files ending in .toml are decoded as
// TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in the format chosen by its extension.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks values that flags would otherwise reject.
func (c *Config) Validate() error {
	if c.Input.Workers < 0 {
		return fmt.Errorf("input.workers must be >= 0, got %d", c.Input.Workers)
	}
	if c.Selection.Range != "" {
		if _, err := c.SelectionRange(); err != nil {
			return err
		}
	}
	if c.Geometry.OrientationTolerance < 0 || c.Geometry.SpacingTolerance < 0 {
		return fmt.Errorf("geometry tolerances must be >= 0")
	}
	if c.Preview.Rows <= 0 || c.Preview.Cols <= 0 || c.Preview.TileSize <= 0 {
		return fmt.Errorf("preview rows, cols and tile_size must be > 0")
	}
	if _, err := c.MaxVolumeBytes(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// SelectionRange parses Selection.Range; nil means all slices.
func (c *Config) SelectionRange() (*volume.Range, error) {
	if c.Selection.Range == "" {
		return nil, nil
	}
	start, end, err := util.ParseRange(c.Selection.Range)
	if err != nil {
		return nil, fmt.Errorf("selection.range: %w", err)
	}
	return &volume.Range{Start: start, End: end}, nil
}

// MaxVolumeBytes parses Limits.MaxVolumeSize; 0 means no limit.
func (c *Config) MaxVolumeBytes() (int64, error) {
	if c.Limits.MaxVolumeSize == "" {
		return 0, nil
	}
	n, err := util.ParseSize(c.Limits.MaxVolumeSize)
	if err != nil {
		return 0, fmt.Errorf("limits.max_volume_size: %w", err)
	}
	return n, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
