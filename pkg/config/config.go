// Package config loads boxflow settings from defaults, an optional config
// file, BOXFLOW_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"boxflow/pkg/text"
)

var ErrInvalid = errors.New("invalid configuration")

const EnvPrefix = "BOXFLOW"

type ViewportConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	DPI    float64 `mapstructure:"dpi"`
}

type FontsConfig struct {
	Regular    string `mapstructure:"regular"`
	Bold       string `mapstructure:"bold"`
	Italic     string `mapstructure:"italic"`
	BoldItalic string `mapstructure:"bold_italic"`
	Mono       string `mapstructure:"mono"`
}

// PageConfig sizes the fragmentainer used by pagination. A zero width uses
// the viewport width.
type PageConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	Max    int     `mapstructure:"max"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	JSON       bool   `mapstructure:"json"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ImagesConfig controls http(s) image sources in scenes.
type ImagesConfig struct {
	Remote  bool          `mapstructure:"remote"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RenderConfig struct {
	Scale float64 `mapstructure:"scale"`
	// Wireframe overlays border boxes on painted output.
	Wireframe bool `mapstructure:"wireframe"`
}

type Config struct {
	Viewport    ViewportConfig `mapstructure:"viewport"`
	Fonts       FontsConfig    `mapstructure:"fonts"`
	Page        PageConfig     `mapstructure:"page"`
	Log         LogConfig      `mapstructure:"log"`
	Render      RenderConfig   `mapstructure:"render"`
	Images      ImagesConfig   `mapstructure:"images"`
	Concurrency int            `mapstructure:"concurrency"`
	// Strict fails scene builds on invalid style declarations.
	Strict      bool           `mapstructure:"strict"`
}

// SetDefaults initializes default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("viewport.width", 800)
	v.SetDefault("viewport.height", 600)
	v.SetDefault("viewport.dpi", 96)

	v.SetDefault("fonts.regular", "")
	v.SetDefault("fonts.bold", "")
	v.SetDefault("fonts.italic", "")
	v.SetDefault("fonts.bold_italic", "")
	v.SetDefault("fonts.mono", "")

	v.SetDefault("page.width", 0)
	v.SetDefault("page.height", 1123)
	v.SetDefault("page.max", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("render.scale", 1.0)
	v.SetDefault("render.wireframe", false)

	v.SetDefault("images.remote", true)
	v.SetDefault("images.timeout", "30s")

	v.SetDefault("concurrency", 4)
	v.SetDefault("strict", false)
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default is the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	return cfg
}

// Load reads path, or boxflow.{yaml,toml} from the working directory when
// path is empty, and returns the merged configuration. A missing default
// file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("boxflow")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Viewport.Width <= 0 || c.Viewport.Height <= 0:
		return fmt.Errorf("%w: viewport must be positive, got %gx%g", ErrInvalid, c.Viewport.Width, c.Viewport.Height)
	case c.Viewport.DPI <= 0:
		return fmt.Errorf("%w: viewport.dpi must be positive, got %g", ErrInvalid, c.Viewport.DPI)
	case c.Page.Width < 0 || c.Page.Height <= 0:
		return fmt.Errorf("%w: page height must be positive, got %gx%g", ErrInvalid, c.Page.Width, c.Page.Height)
	case c.Page.Max < 0:
		return fmt.Errorf("%w: page.max must not be negative", ErrInvalid)
	case c.Render.Scale <= 0:
		return fmt.Errorf("%w: render.scale must be positive, got %g", ErrInvalid, c.Render.Scale)
	case c.Images.Timeout <= 0:
		return fmt.Errorf("%w: images.timeout must be positive, got %s", ErrInvalid, c.Images.Timeout)
	case c.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalid, c.Concurrency)
	}
	return nil
}

// FontConfig converts the font paths for text.NewFontStoreFromConfig.
func (c *Config) FontConfig() text.FontConfig {
	f := c.Fonts
	return text.FontConfig{
		Regular:    f.Regular,
		Bold:       f.Bold,
		Italic:     f.Italic,
		BoldItalic: f.BoldItalic,
		Monospace:  f.Mono,
	}
}
