package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitConfig_UsesXDGConfigHome(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if configPath != filepath.Join(tmpDir, "guardfs", "config.yaml") {
		t.Errorf("Unexpected config path: %s", configPath)
	}
	if !DefaultConfigExists() {
		t.Error("Expected default config to exist after init")
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	for _, section := range []string{"# guardfs configuration file", "logging:", "store:", "api:", "metrics:", "telemetry:"} {
		if !strings.Contains(string(content), section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}
}

func TestInitConfigToPath_AlreadyExists(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	if err := InitConfigToPath(configPath, false); err != nil {
		t.Fatalf("First InitConfigToPath failed: %v", err)
	}

	err := InitConfigToPath(configPath, false)
	if err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}

	if err := InitConfigToPath(configPath, true); err != nil {
		t.Fatalf("InitConfigToPath with force failed: %v", err)
	}
}

func TestGeneratedConfigIsLoadable(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sub", "config.yaml")

	if err := InitConfigToPath(configPath, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected INFO log level in generated config, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected port 8080 in generated config, got %d", cfg.API.Port)
	}
	if cfg.Store.MaxNameLength != 255 {
		t.Errorf("Expected max_name_length 255, got %d", cfg.Store.MaxNameLength)
	}
}

func TestJSONSchema(t *testing.T) {
	data, err := json.Marshal(JSONSchema())
	if err != nil {
		t.Fatalf("Failed to marshal schema: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Schema is not valid JSON: %v", err)
	}

	props, ok := doc["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Schema has no properties: %s", data)
	}
	for _, key := range []string{"logging", "store", "api", "metrics", "telemetry", "shutdown_timeout"} {
		if _, ok := props[key]; !ok {
			t.Errorf("Schema missing property %q", key)
		}
	}

	store := props["store"].(map[string]any)["properties"].(map[string]any)
	if _, ok := store["capacity"].(map[string]any)["oneOf"]; !ok {
		t.Errorf("Expected capacity to accept integers and size strings: %v", store["capacity"])
	}
	timeout := props["shutdown_timeout"].(map[string]any)
	if timeout["type"] != "string" {
		t.Errorf("Expected shutdown_timeout to be a string, got %v", timeout["type"])
	}
}
