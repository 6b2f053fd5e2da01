package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Save original env and restore after test
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			for i, c := range env {
				if c == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}()

	// Clear env to test defaults
	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"StoreProvider", cfg.StoreProvider, "postgres"},
		{"QueueProvider", cfg.QueueProvider, "nats"},
		{"CacheProvider", cfg.CacheProvider, "redis"},
		{"DefaultProvider", cfg.DefaultProvider, "ollama"},
		{"OllamaURL", cfg.OllamaURL, "http://localhost:11434"},
		{"OllamaModel", cfg.OllamaModel, "llama3.2:latest"},
		{"GeminiModel", cfg.GeminiModel, "gemini-2.5-flash"},
		{"DefaultContextChars", cfg.DefaultContextChars, 8000},
		{"PreviewChars", cfg.PreviewChars, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "mistral:7b")
	t.Setenv("LLM_PROVIDER", "gemini")

	cfg := Load()

	if cfg.OllamaModel != "mistral:7b" {
		t.Errorf("expected env override, got %q", cfg.OllamaModel)
	}
	if cfg.DefaultProvider != "gemini" {
		t.Errorf("expected env override, got %q", cfg.DefaultProvider)
	}
}

func TestClampContextChars(t *testing.T) {
	cfg := Config{
		DefaultContextChars: 8000,
		MinContextChars:     2000,
		MaxContextChars:     20000,
	}

	tests := []struct {
		in   int
		want int
	}{
		{0, 8000},      // zero picks the default
		{500, 2000},    // below minimum
		{50000, 20000}, // above maximum
		{10000, 10000}, // within range
	}
	for _, tt := range tests {
		if got := cfg.ClampContextChars(tt.in); got != tt.want {
			t.Errorf("ClampContextChars(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
