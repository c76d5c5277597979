package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	ws := t.TempDir()

	cfg, err := Load(ws)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "general_fitness", cfg.Domains.BaseDomain)
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, filepath.Join(ws, ".fitcoach", "fitcoach.db"), cfg.Storage.DatabasePath)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	ws := t.TempDir()

	cfg := DefaultConfig(ws)
	cfg.LLM.Provider = "openai"
	cfg.LLM.Fallbacks = []string{"gemini"}
	cfg.Pipeline.MaxRetries = 5
	require.NoError(t, Save(cfg, ws))

	got, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "openai", got.LLM.Provider)
	assert.Equal(t, []string{"gemini"}, got.LLM.Fallbacks)
	assert.Equal(t, 5, got.Pipeline.MaxRetries)
}

func TestLoadFillsMissingSectionsWithDefaults(t *testing.T) {
	ws := t.TempDir()
	path := ConfigPath(ws)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0644))

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.NotEmpty(t, cfg.Storage.DatabasePath)
}

func TestEnvOverrides(t *testing.T) {
	ws := t.TempDir()

	t.Run("fitcoach key wins", func(t *testing.T) {
		t.Setenv("FITCOACH_API_KEY", "top")
		t.Setenv("GEMINI_API_KEY", "gem")

		cfg, err := Load(ws)
		require.NoError(t, err)
		assert.Equal(t, "top", cfg.LLM.APIKey)
	})

	t.Run("provider key as fallback", func(t *testing.T) {
		t.Setenv("FITCOACH_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "gem")

		cfg, err := Load(ws)
		require.NoError(t, err)
		assert.Equal(t, "gem", cfg.LLM.APIKey)
	})

	t.Run("openai provider reads openai key", func(t *testing.T) {
		t.Setenv("FITCOACH_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "oai")

		cfg := DefaultConfig(ws)
		cfg.LLM.Provider = "openai"
		require.NoError(t, Save(cfg, ws))
		defer os.Remove(ConfigPath(ws))

		got, err := Load(ws)
		require.NoError(t, err)
		assert.Equal(t, "oai", got.LLM.APIKey)
	})
}

func TestLLMTimeout(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout())

	cfg.LLM.Timeout = "30s"
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())

	cfg.LLM.Timeout = "garbage"
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout())
}
