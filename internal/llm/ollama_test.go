package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "llama3.2:latest" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "  the answer  ", Done: true})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "llama3.2:latest", time.Second)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	got, err := client.Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "the answer" {
		t.Errorf("expected trimmed answer, got %q", got)
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, _ := NewOllamaClient(srv.URL, "missing", time.Second)
	_, err := client.Generate(context.Background(), "question")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestOllamaGenerateOverloaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _ := NewOllamaClient(srv.URL, "llama3.2:latest", time.Second)
	_, err := client.Generate(context.Background(), "question")
	if !errors.Is(err, ErrOverloaded) {
		t.Errorf("expected ErrOverloaded, got %v", err)
	}
}

func TestOllamaGenerateErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Error: "out of memory"})
	}))
	defer srv.Close()

	client, _ := NewOllamaClient(srv.URL, "llama3.2:latest", time.Second)
	_, err := client.Generate(context.Background(), "question")
	if err == nil {
		t.Fatal("expected error when response carries an error field")
	}
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer srv.Close()

	client, _ := NewOllamaClient(srv.URL, "llama3.2:latest", time.Second)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].Name != "llama3.2:latest" || models[0].Provider != ProviderOllama {
		t.Errorf("unexpected first model: %+v", models[0])
	}
}

func TestNewOllamaClientDefaults(t *testing.T) {
	client, err := NewOllamaClient("http://localhost:11434/", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != "llama3.2:latest" {
		t.Errorf("expected default model, got %q", client.Model())
	}
	if client.baseURL != "http://localhost:11434" {
		t.Errorf("expected trailing slash trimmed, got %q", client.baseURL)
	}
}

func TestNewOllamaClientRequiresURL(t *testing.T) {
	if _, err := NewOllamaClient("", "m", time.Second); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
