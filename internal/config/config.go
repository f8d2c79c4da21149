// Package config loads benchmark run settings from a YAML file. The CLI
// merges these with command-line flags; flags win.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Render struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"render"`

	Benchmark struct {
		SceneDurationSeconds float64 `yaml:"scene_duration_seconds"`
		ReportPath           string  `yaml:"report_path"`
	} `yaml:"benchmark"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// SceneDuration returns the configured scene duration, or zero when the
// file does not set one.
func (c Config) SceneDuration() time.Duration {
	return time.Duration(c.Benchmark.SceneDurationSeconds * float64(time.Second))
}

func (c Config) validate() error {
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return fmt.Errorf("render size %dx%d must not be negative", c.Render.Width, c.Render.Height)
	}
	if c.Benchmark.SceneDurationSeconds < 0 {
		return fmt.Errorf("scene_duration_seconds %v must not be negative", c.Benchmark.SceneDurationSeconds)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
