package llm

import (
	"errors"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", errors.New("Error 429, Message: too many requests"), true},
		{"resource exhausted", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"quota", errors.New("quota exceeded for project"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsOverloadedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"503", errors.New("Error 503"), true},
		{"unavailable", errors.New("Status: UNAVAILABLE"), true},
		{"overloaded", errors.New("the model is overloaded"), true},
		{"unrelated", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverloadedError(tt.err); got != tt.want {
				t.Errorf("IsOverloadedError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: rate limited. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED")
	got := ExtractRetryDelay(err)
	want := time.Duration(45.387061394 * float64(time.Second))
	if got != want {
		t.Errorf("ExtractRetryDelay = %v, want %v", got, want)
	}
}

func TestExtractRetryDelayAbsent(t *testing.T) {
	if got := ExtractRetryDelay(errors.New("some other failure")); got != 0 {
		t.Errorf("expected 0 for missing delay, got %v", got)
	}
	if got := ExtractRetryDelay(nil); got != 0 {
		t.Errorf("expected 0 for nil error, got %v", got)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        20 * time.Second,
		BackoffMultiplier: 2.0,
	}

	if got := cfg.CalculateBackoff(0, 0); got != 2*time.Second {
		t.Errorf("attempt 0: got %v, want 2s", got)
	}
	if got := cfg.CalculateBackoff(2, 0); got != 8*time.Second {
		t.Errorf("attempt 2: got %v, want 8s", got)
	}
	// Capped at MaxBackoff.
	if got := cfg.CalculateBackoff(10, 0); got != 20*time.Second {
		t.Errorf("attempt 10: got %v, want cap 20s", got)
	}
	// API-provided delay plus buffer is used as base.
	if got := cfg.CalculateBackoff(0, 5*time.Second); got != 6*time.Second {
		t.Errorf("api delay: got %v, want 6s", got)
	}
}
