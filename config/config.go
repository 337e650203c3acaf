// Package config loads stylecore settings from defaults, an optional YAML
// file and STYLECORE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chrisuehlinger/stylecore/css"
	"github.com/chrisuehlinger/stylecore/layout"
	"github.com/chrisuehlinger/stylecore/layout/flex"
	"github.com/chrisuehlinger/stylecore/layout/yoga"
)

// EnvPrefix is prepended to environment overrides, e.g. STYLECORE_VIEWPORT_WIDTH.
const EnvPrefix = "STYLECORE"

// Config is the full application configuration.
type Config struct {
	Viewport ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	CSS      CSSConfig      `mapstructure:"css" yaml:"css"`
	Cascade  CascadeConfig  `mapstructure:"cascade" yaml:"cascade"`
	Layout   LayoutConfig   `mapstructure:"layout" yaml:"layout"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ViewportConfig is the initial media environment.
type ViewportConfig struct {
	Width     float64 `mapstructure:"width" yaml:"width"`
	Height    float64 `mapstructure:"height" yaml:"height"`
	MediaType string  `mapstructure:"media_type" yaml:"media_type"`
}

// CSSConfig controls stylesheet parsing.
type CSSConfig struct {
	RecoverFromErrors bool `mapstructure:"recover_from_errors" yaml:"recover_from_errors"`
}

// CascadeConfig controls the parallel cascade.
type CascadeConfig struct {
	// Workers bounds selector matching concurrency. Zero means GOMAXPROCS.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LayoutConfig controls the geometry solver.
type LayoutConfig struct {
	// Solver selects the geometry engine: "flex" or "yoga". The yoga
	// solver hands trees it cannot express to the flex solver.
	Solver string `mapstructure:"solver" yaml:"solver"`
	// MaxBoxes caps the boxes one pass may create. Zero means unlimited.
	MaxBoxes int `mapstructure:"max_boxes" yaml:"max_boxes"`
}

// LoggingConfig selects the zap level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers every key with its default value. Keys must be
// registered for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("viewport.width", 1024)
	v.SetDefault("viewport.height", 768)
	v.SetDefault("viewport.media_type", "screen")

	v.SetDefault("css.recover_from_errors", true)

	v.SetDefault("cascade.workers", 0)

	v.SetDefault("layout.solver", "flex")
	v.SetDefault("layout.max_boxes", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("unmarshal default config: %v", err))
	}
	return &cfg
}

// Load reads configuration into v. An explicit file must exist; without
// one, ./stylecore.yaml is used when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("stylecore")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the settings already held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Viewport.Width <= 0 {
		err = multierr.Append(err, errors.New("viewport.width must be positive"))
	}
	if c.Viewport.Height <= 0 {
		err = multierr.Append(err, errors.New("viewport.height must be positive"))
	}
	if _, mtErr := css.ParseMediaType(c.Viewport.MediaType); mtErr != nil {
		err = multierr.Append(err, fmt.Errorf("viewport.media_type: %w", mtErr))
	}
	if c.Cascade.Workers < 0 {
		err = multierr.Append(err, errors.New("cascade.workers must not be negative"))
	}
	switch c.Layout.Solver {
	case "flex", "yoga":
	default:
		err = multierr.Append(err, fmt.Errorf("layout.solver %q must be flex or yoga", c.Layout.Solver))
	}
	if c.Layout.MaxBoxes < 0 {
		err = multierr.Append(err, errors.New("layout.max_boxes must not be negative"))
	}
	if _, lvlErr := zapcore.ParseLevel(c.Logging.Level); lvlErr != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", lvlErr))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format %q must be console or json", c.Logging.Format))
	}
	return err
}

// EngineConfig converts the settings into a cascade engine configuration.
func (c *Config) EngineConfig() (css.EngineConfig, error) {
	mt, err := css.ParseMediaType(c.Viewport.MediaType)
	if err != nil {
		return css.EngineConfig{}, err
	}
	return css.EngineConfig{
		Viewport: css.Viewport{Width: c.Viewport.Width, Height: c.Viewport.Height, Media: mt},
		Workers:  c.Cascade.Workers,
		Parse:    css.ParseOptions{RecoverFromErrors: c.CSS.RecoverFromErrors},
	}, nil
}

// ViewportSize returns the layout viewport.
func (c *Config) ViewportSize() layout.Size {
	return layout.Size{Width: c.Viewport.Width, Height: c.Viewport.Height}
}

// Solvers returns the geometry solver factory the settings select.
func (l LayoutConfig) Solvers() layout.SolverFactory {
	fallback := flex.Factory(flex.WithMaxBoxes(l.MaxBoxes))
	if l.Solver == "yoga" {
		return layout.WithFallback(yoga.Factory(yoga.WithMaxBoxes(l.MaxBoxes)), fallback)
	}
	return fallback
}

// Build constructs a logger writing to stderr.
func (l LoggingConfig) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = l.Format
	zc.Sampling = nil
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if l.Format == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
			zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	return zc.Build()
}
