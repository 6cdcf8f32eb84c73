package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Integration tests that exercise the full LoadFrom pipeline:
// defaults < YAML < environment variables.

func TestLoadFrom_FullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
crew:
  destination: Rome
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRIPCREW_PORT", "7070")
	t.Setenv("TRIPCREW_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should override YAML: got port %q, want 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override YAML: got level %q, want warn", cfg.Logging.Level)
	}
	if cfg.Crew.Destination != "Rome" {
		t.Errorf("YAML should override defaults: got %q, want Rome", cfg.Crew.Destination)
	}
}

func TestLoadFrom_NoFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port, got %q", cfg.Server.Port)
	}
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte("llm:\n  provider: mystery\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(yamlPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "config validate") {
		t.Errorf("expected wrapped validate error, got %v", err)
	}
}

func TestLoadFrom_EnvCanBreakValidation(t *testing.T) {
	t.Setenv("TRIPCREW_LLM_TEMPERATURE", "3")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected temperature validation error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("TRIPCREW_DESTINATION=Oslo\nTRIPCREW_PORT=6060\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Registered with t.Setenv so the values are restored after the test;
	// the port is already set and must not be overridden by the file.
	t.Setenv("TRIPCREW_DESTINATION", "")
	t.Setenv("TRIPCREW_PORT", "5050")
	if err := os.Unsetenv("TRIPCREW_DESTINATION"); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	cfg, err := LoadFrom(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Crew.Destination != "Oslo" {
		t.Errorf("expected destination from .env, got %q", cfg.Crew.Destination)
	}
	if cfg.Server.Port != "5050" {
		t.Errorf("existing env must win over .env, got %q", cfg.Server.Port)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should not error, got %v", err)
	}
}
