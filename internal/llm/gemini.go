package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient calls the Google Gemini API via the genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	retry       *RetryConfig
}

// NewGeminiClient builds a Gemini client; the API key comes from config
// (GEMINI_API_KEY).
func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float32) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: temperature,
		retry:       NewDefaultRetryConfig(),
	}, nil
}

func (c *GeminiClient) Model() string { return c.model }

// Generate sends a prompt and returns the response text. Rate limit errors
// are retried honoring the API-suggested delay; a backend that stays
// unavailable surfaces as ErrOverloaded.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		resp, apiErr = c.client.Models.GenerateContent(ctx, c.model, contents, config)
		if apiErr == nil {
			break
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = c.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else if IsOverloadedError(apiErr) {
			backoff = c.retry.CalculateBackoff(attempt, 0)
		} else {
			return "", fmt.Errorf("gemini api call failed: %w", apiErr)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		if IsOverloadedError(apiErr) || IsRateLimitError(apiErr) {
			return "", fmt.Errorf("%w: %s", ErrOverloaded, apiErr)
		}
		return "", fmt.Errorf("gemini api call failed after %d retries: %w", c.retry.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini api")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty text in gemini response")
	}
	return text, nil
}
