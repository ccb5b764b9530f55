package llm

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Provider identifies which LLM backend serves extraction calls.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
)

// FactoryConfig describes how to build the extraction clients.
type FactoryConfig struct {
	Provider Provider

	// APIKeys is the ordered key pool. Each key gets its own client and
	// its own circuit breaker slot; the pipeline rotates to the next key
	// when a breaker opens. Ignored for ollama.
	APIKeys []string

	Model   string
	BaseURL string // openai and ollama only
	Timeout time.Duration

	// RequestsPerSecond paces each client; zero means no pacing.
	RequestsPerSecond float64

	// EmbeddingModel and EmbeddingAPIKey configure the embedding client.
	// Anthropic has no embeddings API, so when the provider is anthropic
	// the embedding key must be an openai key.
	EmbeddingModel  string
	EmbeddingAPIKey string
}

// KeyedGenerator pairs a text generator with the index of the API key
// that backs it. The index is the breaker registry coordinate, so it is
// stable across restarts as long as the key order in config is stable.
type KeyedGenerator struct {
	KeyIndex  int
	Generator TextGenerator
}

// ParseAPIKeys splits a comma-separated key list, trimming whitespace
// and dropping empty entries.
func ParseAPIKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// NewTextGenerators builds one generator per API key for the configured
// provider. Ollama has no keys, so it yields a single client at index 0.
func NewTextGenerators(cfg FactoryConfig) ([]KeyedGenerator, error) {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		if len(cfg.APIKeys) == 0 {
			return nil, fmt.Errorf("anthropic provider requires at least one API key")
		}
		gens := make([]KeyedGenerator, 0, len(cfg.APIKeys))
		for i, key := range cfg.APIKeys {
			gens = append(gens, KeyedGenerator{
				KeyIndex: i,
				Generator: NewAnthropicClient(AnthropicConfig{
					APIKey:  key,
					Model:   cfg.Model,
					Timeout: cfg.Timeout,
					Limiter: limiter,
				}),
			})
		}
		return gens, nil

	case ProviderOpenAI:
		if len(cfg.APIKeys) == 0 {
			return nil, fmt.Errorf("openai provider requires at least one API key")
		}
		gens := make([]KeyedGenerator, 0, len(cfg.APIKeys))
		for i, key := range cfg.APIKeys {
			gens = append(gens, KeyedGenerator{
				KeyIndex: i,
				Generator: NewOpenAIClient(OpenAIConfig{
					APIKey:  key,
					Model:   cfg.Model,
					BaseURL: cfg.BaseURL,
					Timeout: cfg.Timeout,
					Limiter: limiter,
				}),
			})
		}
		return gens, nil

	case ProviderOllama:
		return []KeyedGenerator{{
			KeyIndex: 0,
			Generator: NewOllamaClient(OllamaConfig{
				BaseURL: cfg.BaseURL,
				Model:   cfg.Model,
				Timeout: cfg.Timeout,
			}),
		}}, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator builds the embedding client for the configured
// provider. Embedding calls always go through openai unless the provider
// is ollama, which embeds locally.
func NewEmbeddingGenerator(cfg FactoryConfig) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		key := cfg.EmbeddingAPIKey
		if key == "" && cfg.Provider == ProviderOpenAI && len(cfg.APIKeys) > 0 {
			key = cfg.APIKeys[0]
		}
		if key == "" {
			return nil, fmt.Errorf("embedding generation requires an openai API key")
		}
		return NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{
			APIKey:  key,
			Model:   cfg.EmbeddingModel,
			Timeout: cfg.Timeout,
		}), nil

	case ProviderOllama:
		model := cfg.EmbeddingModel
		if model == "" {
			model = cfg.Model
		}
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   model,
			Timeout: cfg.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
