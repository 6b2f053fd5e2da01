package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/llm"
	"docqa/internal/logger"
	"docqa/internal/queue"
	"docqa/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
	Cache  cache.Cache
	LLM    *llm.Registry
}

// Build loads env, config, and every shared component the gateway needs.
func Build() (Deps, error) {
	base, err := buildBase()
	if err != nil {
		return Deps{}, err
	}
	c, err := buildCache(base.Config, base.Log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	base.Cache = c
	return base, nil
}

// BuildWorker loads the subset a queue worker needs (no answer cache).
func BuildWorker() (Deps, error) {
	deps, err := buildBase()
	if err != nil {
		return Deps{}, err
	}
	deps.Cache = cache.NewNoOpCache()
	return deps, nil
}

func buildBase() (Deps, error) {
	// A missing .env is fine in deployed environments; config falls back to
	// the process environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	registry, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM providers: %w", err)
	}
	return Deps{
		Config: cfg,
		Log:    log,
		Store:  st,
		Queue:  q,
		LLM:    registry,
	}, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			// Degrade to no caching rather than refusing to start.
			log.Warn("redis unavailable, caching disabled", "err", err)
			return cache.NewNoOpCache(), nil
		}
		log.Info("using Redis answer cache", "addr", cfg.RedisAddr)
		return c, nil
	case "noop":
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: redis, noop)", cfg.CacheProvider)
	}
}

// buildLLM wires every provider the configuration has credentials for.
// Ollama needs no key and is always registered; the default provider must
// end up registered or startup fails.
func buildLLM(cfg config.Config, log *slog.Logger) (*llm.Registry, error) {
	clients := make(map[string]llm.Client)

	ollama, err := llm.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, time.Duration(cfg.OllamaTimeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Ollama client: %w", err)
	}
	clients[llm.ProviderOllama] = ollama
	log.Info("registered Ollama provider", "url", cfg.OllamaURL, "model", cfg.OllamaModel)

	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, float32(cfg.LLMTemperature))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		clients[llm.ProviderGemini] = gemini
		log.Info("registered Gemini provider", "model", cfg.GeminiModel)
	}

	if cfg.OpenAIKey != "" {
		oa, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.OpenAIModel), cfg.LLMTemperature)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		clients[llm.ProviderOpenAI] = oa
		log.Info("registered OpenAI provider", "model", cfg.OpenAIModel)
	}

	registry, err := llm.NewRegistry(cfg.DefaultProvider, clients)
	if err != nil {
		return nil, err
	}
	return registry, nil
}
