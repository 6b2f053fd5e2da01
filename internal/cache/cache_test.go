package cache

import (
	"testing"
)

func TestKeyStable(t *testing.T) {
	a := Key("question", "doc-1", "ollama", 8000)
	b := Key("question", "doc-1", "ollama", 8000)
	if a != b {
		t.Error("expected identical inputs to produce identical keys")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256 key, got length %d", len(a))
	}
}

func TestKeyVariesWithInputs(t *testing.T) {
	base := Key("question", "doc-1", "ollama", 8000)

	tests := []struct {
		name string
		key  string
	}{
		{"different question", Key("other question", "doc-1", "ollama", 8000)},
		{"different document", Key("question", "doc-2", "ollama", 8000)},
		{"different provider", Key("question", "doc-1", "gemini", 8000)},
		{"different context budget", Key("question", "doc-1", "ollama", 4000)},
		{"no document", Key("question", "", "ollama", 8000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Error("expected a different key")
			}
		})
	}
}
