package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config_*.yml")
	require.NoError(t, err)
	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("non_existent_config.yml")
	require.NoError(t, err)

	assert.Empty(t, config.Content.Proxies)
	assert.Equal(t, 20*time.Second, config.FetchTimeout())
	assert.Equal(t, "gemini", config.Summarizer.Provider)
	assert.Equal(t, 3, config.Summarizer.MaxRetries)
	assert.Equal(t, time.Second, config.RetryDelay())
	assert.Equal(t, "espeak-ng", config.Narration.Binary)
	assert.Equal(t, time.Second, config.InterItemPause())
	assert.Equal(t, 100*time.Millisecond, config.ProgressInterval())
	assert.Equal(t, "summaries.json", config.Storage.Path)
	assert.True(t, config.Storage.Cache)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeTemp(t, `
content:
  fetch_timeout_seconds: 5
  proxies:
    - endpoint: "https://relay.example/get?url="
      mode: json
summarizer:
  provider: openai
  models:
    - id: small-model
      max_tokens: 512
narration:
  inter_item_pause_seconds: 0.5
storage:
  cache: false
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, config.FetchTimeout())
	require.Len(t, config.Content.Proxies, 1)
	assert.Equal(t, ProxyConfig{Endpoint: "https://relay.example/get?url=", Mode: "json"}, config.Content.Proxies[0])
	assert.Equal(t, "openai", config.Summarizer.Provider)
	assert.Equal(t, []ModelConfig{{ID: "small-model", MaxTokens: 512}}, config.Summarizer.Models)
	assert.Equal(t, 500*time.Millisecond, config.InterItemPause())
	assert.False(t, config.Storage.Cache)

	// Keys missing from the file keep their defaults.
	assert.Equal(t, "en", config.Narration.Language)
	assert.Equal(t, 3, config.Summarizer.MaxRetries)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeTemp(t, `
summarizer:
  temperature: "not a number"
  broken_yaml: [ unclosed bracket
`)

	config, err := LoadConfig(path)

	assert.Error(t, err)
	assert.Nil(t, config)
}
