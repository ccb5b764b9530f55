package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/castgraph/internal/retry"
)

func TestStatusErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
		quota     bool
	}{
		{name: "429 is quota", status: 429, body: "too many requests", quota: true},
		{name: "quota marker in 400 body", status: 400, body: `{"error":{"type":"insufficient_quota"}}`, quota: true},
		{name: "rate limit marker", status: 403, body: "rate limit exceeded for this key", quota: true},
		{name: "billing marker", status: 402, body: "billing hard limit reached", quota: true},
		{name: "500 is transient", status: 500, transient: true},
		{name: "503 is transient", status: 503, transient: true},
		{name: "408 is transient", status: 408, transient: true},
		{name: "401 is terminal", status: 401, body: "invalid api key"},
		{name: "400 is terminal", status: 400, body: "bad request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := statusError("anthropic", tt.status, tt.body)
			require.Error(t, err)
			assert.Equal(t, tt.transient, retry.IsTransient(err))
			assert.Equal(t, tt.quota, retry.IsQuota(err))
			assert.Contains(t, err.Error(), "anthropic")
		})
	}
}

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return true }

var _ net.Error = timeoutNetErr{}

func TestTransportErrorClassification(t *testing.T) {
	t.Run("deadline exceeded is transient", func(t *testing.T) {
		err := transportError("openai", context.DeadlineExceeded)
		assert.True(t, retry.IsTransient(err))
	})

	t.Run("net.Error is transient", func(t *testing.T) {
		err := transportError("openai", fmt.Errorf("request failed: %w", timeoutNetErr{}))
		assert.True(t, retry.IsTransient(err))
	})

	t.Run("context canceled stays unclassified", func(t *testing.T) {
		err := transportError("openai", context.Canceled)
		assert.False(t, retry.IsTransient(err))
		assert.False(t, retry.IsQuota(err))
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("other errors are terminal", func(t *testing.T) {
		err := transportError("openai", errors.New("unsupported protocol scheme"))
		assert.False(t, retry.IsTransient(err))
		assert.False(t, retry.IsQuota(err))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcde", 5))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}

func TestFactoryBuildsOneClientPerKey(t *testing.T) {
	gens, err := NewTextGenerators(FactoryConfig{
		Provider: ProviderAnthropic,
		APIKeys:  []string{"key-a", "key-b", "key-c"},
		Model:    "claude-haiku-4-5-20251001",
		Timeout:  10 * time.Second,
	})
	require.NoError(t, err)
	require.Len(t, gens, 3)
	for i, g := range gens {
		assert.Equal(t, i, g.KeyIndex)
		assert.Equal(t, "claude-haiku-4-5-20251001", g.Generator.GetModel())
	}
}

func TestFactoryOllamaSingleClient(t *testing.T) {
	gens, err := NewTextGenerators(FactoryConfig{Provider: ProviderOllama, Model: "llama3.2"})
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, 0, gens[0].KeyIndex)
}

func TestFactoryErrors(t *testing.T) {
	_, err := NewTextGenerators(FactoryConfig{Provider: ProviderAnthropic})
	assert.Error(t, err, "anthropic without keys")

	_, err = NewTextGenerators(FactoryConfig{Provider: "watson"})
	assert.Error(t, err, "unknown provider")
}

func TestParseAPIKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseAPIKeys(" a, b ,c"))
	assert.Equal(t, []string{"solo"}, ParseAPIKeys("solo"))
	assert.Nil(t, ParseAPIKeys(""))
	assert.Nil(t, ParseAPIKeys(" , ,"))
}
