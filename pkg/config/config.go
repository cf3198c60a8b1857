package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ProxyConfig struct {
	Endpoint string `yaml:"endpoint"`
	Mode     string `yaml:"mode"`
}

type ModelConfig struct {
	ID        string `yaml:"id"`
	MaxTokens int    `yaml:"max_tokens"`
}

type Config struct {
	Content struct {
		Proxies             []ProxyConfig `yaml:"proxies"`
		FetchTimeoutSeconds float64       `yaml:"fetch_timeout_seconds"`
		MaxBodyBytes        int64         `yaml:"max_body_bytes"`
		UserAgent           string        `yaml:"user_agent"`
		OEmbedEndpoint      string        `yaml:"oembed_endpoint"`
	} `yaml:"content"`
	Summarizer struct {
		Provider          string        `yaml:"provider"`
		GeminiURL         string        `yaml:"gemini_url"`
		Temperature       float64       `yaml:"temperature"`
		Models            []ModelConfig `yaml:"models"`
		MaxRetries        int           `yaml:"max_retries"`
		RetryDelaySeconds float64       `yaml:"retry_delay_seconds"`
	} `yaml:"summarizer"`
	Narration struct {
		Binary                string  `yaml:"binary"`
		Language              string  `yaml:"language"`
		InterItemPauseSeconds float64 `yaml:"inter_item_pause_seconds"`
		ProgressIntervalMs    int     `yaml:"progress_interval_ms"`
	} `yaml:"narration"`
	Storage struct {
		Path            string `yaml:"path"`
		SurrealNS       string `yaml:"surreal_namespace"`
		SurrealDatabase string `yaml:"surreal_database"`
		Cache           bool   `yaml:"cache"`
	} `yaml:"storage"`
}

// Default returns the configuration used when no file is present. Values
// from a file are layered on top of it.
func Default() *Config {
	config := &Config{}
	config.Content.FetchTimeoutSeconds = 20
	config.Content.MaxBodyBytes = 10 << 20
	config.Content.UserAgent = "Mozilla/5.0 (compatible; ContentSummarizer/1.0)"
	config.Summarizer.Provider = "gemini"
	config.Summarizer.Temperature = 0.7
	config.Summarizer.MaxRetries = 3
	config.Summarizer.RetryDelaySeconds = 1
	config.Narration.Binary = "espeak-ng"
	config.Narration.Language = "en"
	config.Narration.InterItemPauseSeconds = 1
	config.Narration.ProgressIntervalMs = 100
	config.Storage.Path = "summaries.json"
	config.Storage.SurrealNS = "summarizer"
	config.Storage.SurrealDatabase = "summarizer"
	config.Storage.Cache = true
	return config
}

func LoadConfig(path string) (*Config, error) {
	config := Default()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c *Config) FetchTimeout() time.Duration {
	return seconds(c.Content.FetchTimeoutSeconds)
}

func (c *Config) RetryDelay() time.Duration {
	return seconds(c.Summarizer.RetryDelaySeconds)
}

func (c *Config) InterItemPause() time.Duration {
	return seconds(c.Narration.InterItemPauseSeconds)
}

func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Narration.ProgressIntervalMs) * time.Millisecond
}
