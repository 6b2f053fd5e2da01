package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache provides answer caching so a repeated question over the same
// document does not hit the model again.
type Cache interface {
	// GetAnswer retrieves a cached answer by key. Returns nil if not found.
	GetAnswer(ctx context.Context, key string) (*AnswerResult, error)

	// SetAnswer stores an answer with TTL.
	SetAnswer(ctx context.Context, key string, result *AnswerResult, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// AnswerResult is a cached model answer.
type AnswerResult struct {
	Answer   string `json:"answer"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Key derives a stable cache key from the question, the document identity
// and the provider settings that shape the answer.
func Key(question, documentID, provider string, contextChars int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%d", question, documentID, provider, contextChars))
	return hex.EncodeToString(sum[:])
}
