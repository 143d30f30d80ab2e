package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxflow/pkg/text"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ViewportConfig{Width: 800, Height: 600, DPI: 96}, cfg.Viewport)
	assert.Equal(t, 1000, cfg.Page.Max)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1.0, cfg.Render.Scale)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, ImagesConfig{Remote: true, Timeout: 30 * time.Second}, cfg.Images)
	assert.False(t, cfg.Strict)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BOXFLOW_VIEWPORT_WIDTH", "1024")
	t.Setenv("BOXFLOW_LOG_LEVEL", "debug")
	t.Setenv("BOXFLOW_PAGE_HEIGHT", "500")
	t.Setenv("BOXFLOW_IMAGES_TIMEOUT", "5s")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 1024.0, cfg.Viewport.Width)
	assert.Equal(t, 600.0, cfg.Viewport.Height)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 500.0, cfg.Page.Height)
	assert.Equal(t, 5*time.Second, cfg.Images.Timeout)
}

func TestLoad_Files(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"boxflow.yaml", `
viewport:
  width: 320
  height: 240
fonts:
  regular: /fonts/r.ttf
  mono: /fonts/m.ttf
render:
  scale: 2
`},
		{"boxflow.toml", `
[viewport]
width = 320
height = 240

[fonts]
regular = "/fonts/r.ttf"
mono = "/fonts/m.ttf"

[render]
scale = 2.0
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(New(), writeFile(t, tt.name, tt.content))
			require.NoError(t, err)
			assert.Equal(t, 320.0, cfg.Viewport.Width)
			assert.Equal(t, 240.0, cfg.Viewport.Height)
			assert.Equal(t, 96.0, cfg.Viewport.DPI, "unset keys keep their default")
			assert.Equal(t, 2.0, cfg.Render.Scale)
			assert.Equal(t, text.FontConfig{Regular: "/fonts/r.ttf", Monospace: "/fonts/m.ttf"}, cfg.FontConfig())
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "boxflow.yaml", "viewport:\n  width: 320\n")
	t.Setenv("BOXFLOW_VIEWPORT_WIDTH", "640")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 640.0, cfg.Viewport.Width)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	_, err = Load(New(), writeFile(t, "bad.yaml", "viewport: [1, 2"))
	assert.Error(t, err)

	_, err = Load(New(), writeFile(t, "neg.yaml", "render:\n  scale: -1\n"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero viewport", func(c *Config) { c.Viewport.Width = 0 }},
		{"zero dpi", func(c *Config) { c.Viewport.DPI = 0 }},
		{"zero page height", func(c *Config) { c.Page.Height = 0 }},
		{"negative page count", func(c *Config) { c.Page.Max = -1 }},
		{"no workers", func(c *Config) { c.Concurrency = 0 }},
		{"no image timeout", func(c *Config) { c.Images.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalid))
		})
	}
}
