package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected default config to pass validation, got error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantTag string
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "CHATTY" }, "oneof"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"api port out of range", func(c *Config) { c.API.Port = 70000 }, "max"},
		{"negative max files", func(c *Config) { c.Store.MaxFiles = -1 }, "gte"},
		{"negative max handles", func(c *Config) { c.Store.MaxHandles = -5 }, "gte"},
		{"name length too large", func(c *Config) { c.Store.MaxNameLength = 10000 }, "lte"},
		{"sample rate above one", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "lte"},
		{"unknown profile type", func(c *Config) { c.Telemetry.Profiling.ProfileTypes = []string{"heap"} }, "profiletype"},
		{"bad profiling url", func(c *Config) { c.Telemetry.Profiling.Endpoint = "not a url" }, "url"},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "required"},
		{"negative max sessions", func(c *Config) { c.API.MaxSessions = -1 }, "gte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantTag) {
				t.Errorf("Expected %q validation error, got: %v", tt.wantTag, err)
			}
		})
	}
}

func TestValidate_PortConflict(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = cfg.API.Port

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error when metrics and api share a port")
	}
	if !strings.Contains(err.Error(), "must differ") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_TelemetryEndpointRequiredWhenEnabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for enabled telemetry without endpoint")
	}
}
