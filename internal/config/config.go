// Package config holds the server and CLI settings.
//
// Values come from, in increasing priority: built-in defaults, an optional
// config file, PSE_* environment variables and command-line flags. Viper
// does the merging; this package only names the keys, sets the defaults
// and validates the result.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/pse-mcp/internal/detection"
	"github.com/ironsheep/pse-mcp/internal/imaging"
	"github.com/ironsheep/pse-mcp/internal/mask"
)

// Keys shared by flags, environment variables and config files.
const (
	KeyLogLevel   = "log-level"
	KeyMinArea    = "min-area"
	KeyLevel      = "level"
	KeyThreshold  = "threshold"
	KeyMaxPixels  = "max-pixels"
	KeyFormat     = "format"
	KeyScale      = "scale"
	KeyBackground = "background"
)

// EnvPrefix is prepended to upper-cased keys, e.g. PSE_MIN_AREA.
const EnvPrefix = "PSE"

// DefaultMaxPixels bounds the cells per plane a request may carry.
const DefaultMaxPixels = 4096 * 4096

// DefaultThreshold binarizes per-kernel score maps.
const DefaultThreshold = 0.5

// Config is the resolved configuration.
type Config struct {
	LogLevel   string
	MinArea    int
	Level      int
	Threshold  float64
	MaxPixels  int
	Format     string
	Scale      int
	Background string
}

// New returns a viper instance with defaults and environment binding in
// place.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyMinArea, detection.DefaultMinArea)
	v.SetDefault(KeyLevel, imaging.DefaultLevel)
	v.SetDefault(KeyThreshold, DefaultThreshold)
	v.SetDefault(KeyMaxPixels, DefaultMaxPixels)
	v.SetDefault(KeyFormat, imaging.FormatPNG)
	v.SetDefault(KeyScale, 1)
	v.SetDefault(KeyBackground, "")
}

// ReadFile loads a config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Load resolves v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		LogLevel:   v.GetString(KeyLogLevel),
		MinArea:    v.GetInt(KeyMinArea),
		Level:      v.GetInt(KeyLevel),
		Threshold:  v.GetFloat64(KeyThreshold),
		MaxPixels:  v.GetInt(KeyMaxPixels),
		Format:     strings.ToLower(v.GetString(KeyFormat)),
		Scale:      v.GetInt(KeyScale),
		Background: v.GetString(KeyBackground),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.MinArea < 0 {
		return fmt.Errorf("min-area must be >= 0, got %d", c.MinArea)
	}
	if c.Level < 0 || c.Level > 255 {
		return fmt.Errorf("level must be in 0-255, got %d", c.Level)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in 0-1, got %v", c.Threshold)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("max-pixels must be positive, got %d", c.MaxPixels)
	}
	if c.Scale < 1 {
		return fmt.Errorf("scale must be >= 1, got %d", c.Scale)
	}
	switch c.Format {
	case imaging.FormatPNG, imaging.FormatWebP:
	default:
		return fmt.Errorf("format must be %q or %q, got %q", imaging.FormatPNG, imaging.FormatWebP, c.Format)
	}
	return nil
}

// LevelByte returns the binarization level as a byte. Validate guarantees
// it fits.
func (c Config) LevelByte() uint8 { return uint8(c.Level) }

// CheckPixels rejects planes larger than MaxPixels cells.
func (c Config) CheckPixels(width, height int) error {
	if width > 0 && height > c.MaxPixels/width {
		return fmt.Errorf("plane %dx%d exceeds max-pixels %d: %w",
			width, height, c.MaxPixels, mask.ErrInvalidShape)
	}
	return nil
}

// CheckScaled rejects a rendered image whose upscaled size exceeds
// MaxPixels cells. Scale values below 1 count as 1.
func (c Config) CheckScaled(width, height, scale int) error {
	if err := c.CheckPixels(width, height); err != nil {
		return err
	}
	if scale <= 1 {
		return nil
	}
	if scale > c.MaxPixels || width*height > c.MaxPixels/scale/scale {
		return fmt.Errorf("image %dx%d at scale %d exceeds max-pixels %d: %w",
			width, height, scale, c.MaxPixels, mask.ErrInvalidShape)
	}
	return nil
}
