// Package config provides configuration management for Castgraph.
// It loads settings from environment variables with the CASTGRAPH_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the Castgraph application.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	LLM        LLMConfig
	Pipeline   PipelineConfig
	Resolver   ResolverConfig
	Retry      RetryConfig
	Transcribe TranscribeConfig
	Security   SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7373)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	EpisodesPath  string // Path to episode VTT + metadata files (default: ./episodes)
	PostgresDSN   string // Postgres connection string (postgres engine only)
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	LLMProvider          string  // LLM provider: ollama, openai, anthropic (default: ollama)
	OllamaURL            string  // Ollama API URL (default: http://localhost:11434)
	OllamaModel          string  // Ollama model name for extraction (default: llama3.2)
	OllamaEmbeddingModel string  // Ollama model name for embeddings (default: nomic-embed-text)
	OpenAIAPIKeys        string  // OpenAI API keys, comma-separated for rotation
	OpenAIModel          string  // OpenAI model name (default: gpt-4o-mini)
	AnthropicAPIKeys     string  // Anthropic API keys, comma-separated for rotation
	AnthropicModel       string  // Anthropic model name (default: claude-haiku-4-5-20251001)
	EmbeddingAPIKey      string  // OpenAI key for embeddings when provider is anthropic
	EmbeddingModel       string  // Embedding model name (default: text-embedding-3-small)
	RequestsPerSecond    float64 // Client-side request pacing; 0 disables
	EmbeddingsEnabled    bool    // Generate entity embeddings after resolution (default: false)
}

// PipelineConfig contains extraction pipeline tuning.
type PipelineConfig struct {
	Workers        int           // Concurrent extraction workers (default: 4)
	UnitMaxTokens  int           // Token budget per transcript unit (default: 3000)
	UnitPauseGap   time.Duration // Silence that, with a speaker change, breaks a unit (default: 8s)
	CheckpointPath string        // Path to pipeline checkpoint file (default: <data>/checkpoint.json)
}

// ResolverConfig contains entity resolution tuning.
type ResolverConfig struct {
	SimilarityThreshold float64 // Fuzzy match threshold (default: 0.85)
}

// RetryConfig contains retry and circuit breaker tuning.
type RetryConfig struct {
	MaxAttempts      int           // Attempts per API call (default: 3)
	BaseDelay        time.Duration // First backoff delay (default: 1s)
	FailureThreshold int           // Consecutive failures before a breaker opens (default: 3)
	StatePath        string        // Path to breaker state file (default: <data>/circuit_breakers.json)
}

// TranscribeConfig contains speech-to-text service configuration.
type TranscribeConfig struct {
	SpeechAPIURL string // Speech-to-text API base URL
	SpeechAPIKey string // Speech-to-text API key
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the CASTGRAPH_ prefix.
func LoadConfig() (*Config, error) {
	dataPath := getEnv("CASTGRAPH_DATA_PATH", "./data")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("CASTGRAPH_PORT", 7373),
			Host: getEnv("CASTGRAPH_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("CASTGRAPH_STORAGE_ENGINE", "sqlite"),
			DataPath:      dataPath,
			EpisodesPath:  getEnv("CASTGRAPH_EPISODES_PATH", "./episodes"),
			PostgresDSN:   getEnv("CASTGRAPH_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			LLMProvider:          getEnv("CASTGRAPH_LLM_PROVIDER", "ollama"),
			OllamaURL:            getEnv("CASTGRAPH_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:          getEnv("CASTGRAPH_OLLAMA_MODEL", "llama3.2"),
			OllamaEmbeddingModel: getEnv("CASTGRAPH_OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKeys:        getEnv("CASTGRAPH_OPENAI_API_KEYS", ""),
			OpenAIModel:          getEnv("CASTGRAPH_OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKeys:     getEnv("CASTGRAPH_ANTHROPIC_API_KEYS", ""),
			AnthropicModel:       getEnv("CASTGRAPH_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
			EmbeddingAPIKey:      getEnv("CASTGRAPH_EMBEDDING_API_KEY", ""),
			EmbeddingModel:       getEnv("CASTGRAPH_EMBEDDING_MODEL", "text-embedding-3-small"),
			RequestsPerSecond:    getEnvFloat("CASTGRAPH_REQUESTS_PER_SECOND", 0),
			EmbeddingsEnabled:    getEnvBool("CASTGRAPH_EMBEDDINGS_ENABLED", false),
		},
		Pipeline: PipelineConfig{
			Workers:        getEnvInt("CASTGRAPH_WORKERS", 4),
			UnitMaxTokens:  getEnvInt("CASTGRAPH_UNIT_MAX_TOKENS", 3000),
			UnitPauseGap:   getEnvDuration("CASTGRAPH_UNIT_PAUSE_GAP", 8*time.Second),
			CheckpointPath: getEnv("CASTGRAPH_CHECKPOINT_PATH", dataPath+"/checkpoint.json"),
		},
		Resolver: ResolverConfig{
			SimilarityThreshold: getEnvFloat("CASTGRAPH_SIMILARITY_THRESHOLD", 0.85),
		},
		Retry: RetryConfig{
			MaxAttempts:      getEnvInt("CASTGRAPH_RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:        getEnvDuration("CASTGRAPH_RETRY_BASE_DELAY", time.Second),
			FailureThreshold: getEnvInt("CASTGRAPH_FAILURE_THRESHOLD", 3),
			StatePath:        getEnv("CASTGRAPH_BREAKER_STATE_PATH", dataPath+"/circuit_breakers.json"),
		},
		Transcribe: TranscribeConfig{
			SpeechAPIURL: getEnv("CASTGRAPH_SPEECH_API_URL", ""),
			SpeechAPIKey: getEnv("CASTGRAPH_SPEECH_API_KEY", ""),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("CASTGRAPH_SECURITY_MODE", "development"),
			APIToken:     getEnv("CASTGRAPH_API_TOKEN", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.StorageEngine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage engine %q (must be sqlite or postgres)", c.Storage.StorageEngine)
	}
	if c.Storage.StorageEngine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: CASTGRAPH_POSTGRES_DSN is required when storage engine is postgres")
	}

	switch c.LLM.LLMProvider {
	case "ollama", "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown LLM provider %q (must be ollama, openai, or anthropic)", c.LLM.LLMProvider)
	}

	if c.Resolver.SimilarityThreshold < 0 || c.Resolver.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity threshold %f out of range [0,1]", c.Resolver.SimilarityThreshold)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Pipeline.Workers)
	}

	if c.Security.SecurityMode == "production" && c.Security.APIToken == "" {
		return fmt.Errorf("config: CASTGRAPH_API_TOKEN is required in production security mode")
	}

	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "2s") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
