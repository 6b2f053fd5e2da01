package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the gateway and workers.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Document context sent to the model. Callers may override per request
	// within [MinContextChars, MaxContextChars].
	DefaultContextChars int `env:"DEFAULT_CONTEXT_CHARS" envDefault:"8000"`
	MinContextChars     int `env:"MIN_CONTEXT_CHARS" envDefault:"2000"`
	MaxContextChars     int `env:"MAX_CONTEXT_CHARS" envDefault:"20000"`
	PreviewChars        int `env:"PREVIEW_CHARS" envDefault:"2000"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "noop"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// LLM providers
	DefaultProvider string `env:"LLM_PROVIDER" envDefault:"ollama"` // "ollama", "gemini" or "openai"

	OllamaURL      string  `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel    string  `env:"OLLAMA_MODEL" envDefault:"llama3.2:latest"`
	OllamaTimeout  int     `env:"OLLAMA_TIMEOUT" envDefault:"120"` // seconds
	GeminiAPIKey   string  `env:"GEMINI_API_KEY"`
	GeminiModel    string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	OpenAIKey      string  `env:"OPENAI_API_KEY"`
	OpenAIModel    string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	LLMTemperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.2"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// ClampContextChars bounds a caller-supplied context budget; zero picks the
// configured default.
func (c Config) ClampContextChars(n int) int {
	if n == 0 {
		return c.DefaultContextChars
	}
	if n < c.MinContextChars {
		return c.MinContextChars
	}
	if n > c.MaxContextChars {
		return c.MaxContextChars
	}
	return n
}
