package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpumark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
render:
  width: 2560
  height: 1440
benchmark:
  scene_duration_seconds: 5.5
  report_path: out/report.png
log:
  level: debug
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2560, c.Render.Width)
	assert.Equal(t, 1440, c.Render.Height)
	assert.Equal(t, 5500*time.Millisecond, c.SceneDuration())
	assert.Equal(t, "out/report.png", c.Benchmark.ReportPath)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, `
render:
  width: 1280
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1280, c.Render.Width)
	assert.Zero(t, c.Render.Height)
	assert.Zero(t, c.SceneDuration())
	assert.Empty(t, c.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "render: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"negative width", "render:\n  width: -1\n"},
		{"negative duration", "benchmark:\n  scene_duration_seconds: -2\n"},
		{"bad log level", "log:\n  level: loud\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
