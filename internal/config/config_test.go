package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7373, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "sqlite", cfg.Storage.StorageEngine)
	assert.Equal(t, "./data", cfg.Storage.DataPath)
	assert.Equal(t, "ollama", cfg.LLM.LLMProvider)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 3000, cfg.Pipeline.UnitMaxTokens)
	assert.Equal(t, 8*time.Second, cfg.Pipeline.UnitPauseGap)
	assert.Equal(t, 0.85, cfg.Resolver.SimilarityThreshold)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 3, cfg.Retry.FailureThreshold)
	assert.Equal(t, "./data/circuit_breakers.json", cfg.Retry.StatePath)
	assert.Equal(t, "development", cfg.Security.SecurityMode)
	assert.False(t, cfg.LLM.EmbeddingsEnabled)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CASTGRAPH_PORT", "9000")
	t.Setenv("CASTGRAPH_LLM_PROVIDER", "anthropic")
	t.Setenv("CASTGRAPH_ANTHROPIC_API_KEYS", "k1,k2")
	t.Setenv("CASTGRAPH_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("CASTGRAPH_WORKERS", "8")
	t.Setenv("CASTGRAPH_EMBEDDINGS_ENABLED", "true")
	t.Setenv("CASTGRAPH_DATA_PATH", "/var/lib/castgraph")
	t.Setenv("CASTGRAPH_RETRY_BASE_DELAY", "250ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.LLM.LLMProvider)
	assert.Equal(t, "k1,k2", cfg.LLM.AnthropicAPIKeys)
	assert.Equal(t, 0.9, cfg.Resolver.SimilarityThreshold)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.True(t, cfg.LLM.EmbeddingsEnabled)
	assert.Equal(t, "/var/lib/castgraph/circuit_breakers.json", cfg.Retry.StatePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("unknown storage engine", func(t *testing.T) {
		t.Setenv("CASTGRAPH_STORAGE_ENGINE", "mongodb")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage engine")
	})

	t.Run("postgres requires DSN", func(t *testing.T) {
		t.Setenv("CASTGRAPH_STORAGE_ENGINE", "postgres")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CASTGRAPH_POSTGRES_DSN")
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("CASTGRAPH_LLM_PROVIDER", "watson")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown LLM provider")
	})

	t.Run("threshold out of range", func(t *testing.T) {
		t.Setenv("CASTGRAPH_SIMILARITY_THRESHOLD", "1.5")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("production requires token", func(t *testing.T) {
		t.Setenv("CASTGRAPH_SECURITY_MODE", "production")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CASTGRAPH_API_TOKEN")
	})
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("CASTGRAPH_WORKERS", "not-a-number")
	t.Setenv("CASTGRAPH_EMBEDDINGS_ENABLED", "maybe")
	t.Setenv("CASTGRAPH_SIMILARITY_THRESHOLD", "high")
	t.Setenv("CASTGRAPH_RETRY_BASE_DELAY", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.False(t, cfg.LLM.EmbeddingsEnabled)
	assert.Equal(t, 0.85, cfg.Resolver.SimilarityThreshold)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
}
