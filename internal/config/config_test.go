package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gadget.Path != "/dev/hidg0" {
		t.Errorf("expected default gadget path, got %q", cfg.Gadget.Path)
	}
	if cfg.Gadget.WriteAttempts != 256 {
		t.Errorf("expected default write attempts, got %d", cfg.Gadget.WriteAttempts)
	}
	if cfg.Keylog.Enabled {
		t.Error("keylog must be off by default")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hidbridge.toml")
	content := `
[devices]
paths = ["/dev/input/event5"]

[gadget]
path = "/dev/hidg1"
write_attempts = 8

[keylog]
enabled = true
path = "/tmp/keys.db"

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Devices.Paths; len(got) != 1 || got[0] != "/dev/input/event5" {
		t.Errorf("unexpected device paths: %v", got)
	}
	if cfg.Gadget.Path != "/dev/hidg1" {
		t.Errorf("expected /dev/hidg1, got %q", cfg.Gadget.Path)
	}
	if cfg.Gadget.WriteAttempts != 8 {
		t.Errorf("expected 8 attempts, got %d", cfg.Gadget.WriteAttempts)
	}
	if cfg.Gadget.WaitTimeoutSec != 10 {
		t.Errorf("unset field should keep its default, got %d", cfg.Gadget.WaitTimeoutSec)
	}
	if !cfg.Keylog.Enabled || cfg.Keylog.Path != "/tmp/keys.db" {
		t.Errorf("unexpected keylog config: %+v", cfg.Keylog)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("an explicit missing config file should be an error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty gadget path", func(c *Config) { c.Gadget.Path = "" }},
		{"zero write attempts", func(c *Config) { c.Gadget.WriteAttempts = 0 }},
		{"negative wait timeout", func(c *Config) { c.Gadget.WaitTimeoutSec = -1 }},
		{"keylog without path", func(c *Config) { c.Keylog.Enabled = true }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
