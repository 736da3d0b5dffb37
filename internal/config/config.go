// Package config handles configuration loading and validation for hidbridge.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the complete bridge configuration.
type Config struct {
	// Devices selects the input devices to capture.
	Devices DevicesConfig `toml:"devices"`

	// Gadget configures the HID gadget output.
	Gadget GadgetConfig `toml:"gadget"`

	// Keylog configures the optional key-history store.
	Keylog KeylogConfig `toml:"keylog"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging"`
}

// DevicesConfig selects input devices.
type DevicesConfig struct {
	// Paths pins explicit device nodes. Empty means discover every
	// keyboard-class device under /dev/input.
	Paths []string `toml:"paths"`
}

// GadgetConfig configures the HID gadget output device.
type GadgetConfig struct {
	// Path is the gadget character device node.
	Path string `toml:"path"`

	// WriteAttempts is the per-report retry budget before a write
	// failure becomes fatal.
	WriteAttempts int `toml:"write_attempts"`

	// WaitTimeoutSec bounds the startup wait for the gadget node to
	// appear.
	WaitTimeoutSec int `toml:"wait_timeout_sec"`
}

// KeylogConfig configures the optional SQLite key-history store.
type KeylogConfig struct {
	// Enabled turns key-history recording on. Off by default.
	Enabled bool `toml:"enabled"`

	// Path is the SQLite database file.
	Path string `toml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`

	// Output is "stdout" or "stderr".
	Output string `toml:"output"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Gadget: GadgetConfig{
			Path:           "/dev/hidg0",
			WriteAttempts:  256,
			WaitTimeoutSec: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. An empty path
// returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Gadget.Path == "" {
		return errors.New("gadget.path must not be empty")
	}
	if c.Gadget.WriteAttempts < 1 {
		return errors.New("gadget.write_attempts must be at least 1")
	}
	if c.Gadget.WaitTimeoutSec < 0 {
		return errors.New("gadget.wait_timeout_sec must not be negative")
	}
	if c.Keylog.Enabled && c.Keylog.Path == "" {
		return errors.New("keylog.path required when keylog.enabled")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q: must be text or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}
