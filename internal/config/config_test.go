package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ladle.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad_AppliesYAMLValues verifies YAML values land in env vars when the
// env vars are unset.
func TestLoad_AppliesYAMLValues(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("SEARCH_TOP_K", "")
	t.Setenv("QDRANT_TLS", "")

	path := writeConfigFile(t, `
model:
  provider: ollama
  ollama:
    model: llama3.1
search:
  top_k: 10
qdrant:
  tls: true
`)

	loaded, err := Load(path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != path {
		t.Errorf("loaded path = %q, want %q", loaded, path)
	}
	if got := os.Getenv("MODEL_PROVIDER"); got != "ollama" {
		t.Errorf("MODEL_PROVIDER = %q", got)
	}
	if got := os.Getenv("OLLAMA_MODEL"); got != "llama3.1" {
		t.Errorf("OLLAMA_MODEL = %q", got)
	}
	if got := os.Getenv("SEARCH_TOP_K"); got != "10" {
		t.Errorf("SEARCH_TOP_K = %q", got)
	}
	if got := os.Getenv("QDRANT_TLS"); got != "true" {
		t.Errorf("QDRANT_TLS = %q", got)
	}
}

// TestLoad_EnvWins verifies an existing env var is never overwritten by YAML.
func TestLoad_EnvWins(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "qwen2.5")

	path := writeConfigFile(t, `
model:
  ollama:
    model: llama3.1
`)

	if _, err := Load(path, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("OLLAMA_MODEL"); got != "qwen2.5" {
		t.Errorf("OLLAMA_MODEL = %q, env var should win", got)
	}
}

// TestLoad_NoFile verifies the env-only fallback when no file exists.
func TestLoad_NoFile(t *testing.T) {
	t.Setenv("LADLE_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	loaded, err := Load("", slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != "" {
		t.Errorf("loaded path = %q, want empty", loaded)
	}
}

// TestLoad_ParseError verifies malformed YAML is reported.
func TestLoad_ParseError(t *testing.T) {
	path := writeConfigFile(t, "model: [not: a: mapping")

	if _, err := Load(path, slog.New(slog.DiscardHandler)); err == nil {
		t.Error("expected parse error")
	}
}

// TestResolveConfigPath covers the search order.
func TestResolveConfigPath(t *testing.T) {
	t.Setenv("LADLE_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	explicit := writeConfigFile(t, "model: {}")
	if got := resolveConfigPath(explicit); got != explicit {
		t.Errorf("explicit path = %q, want %q", got, explicit)
	}
	if got := resolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
		t.Errorf("missing explicit path = %q, want empty", got)
	}

	envPath := writeConfigFile(t, "model: {}")
	t.Setenv("LADLE_CONFIG", envPath)
	if got := resolveConfigPath(""); got != envPath {
		t.Errorf("LADLE_CONFIG path = %q, want %q", got, envPath)
	}

	homePath := filepath.Join(os.Getenv("HOME"), ".ladle", "config.yaml")
	t.Setenv("LADLE_CONFIG", "")
	if err := os.MkdirAll(filepath.Dir(homePath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(homePath, []byte("model: {}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := resolveConfigPath(""); got != homePath {
		t.Errorf("home path = %q, want %q", got, homePath)
	}
}

// TestValueFormatting verifies zero values are treated as unset.
func TestValueFormatting(t *testing.T) {
	t.Parallel()

	if got := intStr(0); got != "" {
		t.Errorf("intStr(0) = %q, want empty", got)
	}
	if got := intStr(42); got != "42" {
		t.Errorf("intStr(42) = %q", got)
	}
	if got := float32Str(0); got != "" {
		t.Errorf("float32Str(0) = %q, want empty", got)
	}
	if got := float32Str(0.7); got != "0.7" {
		t.Errorf("float32Str(0.7) = %q", got)
	}
	if got := boolStr(false); got != "" {
		t.Errorf("boolStr(false) = %q, want empty", got)
	}
	if got := boolStr(true); got != "true" {
		t.Errorf("boolStr(true) = %q", got)
	}
}
