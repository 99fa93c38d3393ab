// Package config holds the driver-facing configuration, loadable from
// a TOML file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// MaxPendingWrites caps a transaction's write buffer. Zero means
	// unlimited.
	MaxPendingWrites int `toml:"max-pending-writes"`

	// DetectConflicts turns on the serializable-commit extension.
	DetectConflicts bool `toml:"detect-conflicts"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `toml:"log-level"`
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxPendingWrites: 1024,
		DetectConflicts:  false,
		LogLevel:         "info",
	}
}

// FromFile loads a config from a TOML file over the defaults.
func FromFile(path string) (*Config, error) {
	c := NewDefaultConfig()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MaxPendingWrites < 0 {
		return fmt.Errorf("max-pending-writes must not be negative, got %d", c.MaxPendingWrites)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("bad log-level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the parsed zap level. Validate must have passed.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
