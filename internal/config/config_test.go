package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "memory", cfg.Conversation.Backend)
	assert.Equal(t, 1, cfg.Retry.MaxRetries)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9000
llm:
  provider: openai
  model: gpt-4o-mini
  timeout: 15s
retrieval:
  top_k: 3
  min_similarity: 0.2
conversation:
  backend: redis
  max_messages: 6
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.2, cfg.Retrieval.MinSimilarity, 1e-9)
	assert.Equal(t, "redis", cfg.Conversation.Backend)
	assert.Equal(t, 6, cfg.Conversation.MaxMessages)
	// untouched sections keep defaults
	assert.Equal(t, 5, cfg.Stream.ChunkSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "redis://cache:6379/0", cfg.Conversation.RedisURL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.MinSimilarity = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Conversation.Backend = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.VectorIndex.Provider = "database"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "sqlite3"
	assert.NoError(t, cfg.Validate())
}
