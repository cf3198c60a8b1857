package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"summarizer/pkg/summarize"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"

	requestTimeout = 120 * time.Second
	systemPrompt   = "You write summaries that will be read aloud by a text-to-speech engine."
)

type ModelConfig struct {
	ID       string `yaml:"id"`
	MaxToken int    `yaml:"max_tokens"`
}

var DefaultModels = []ModelConfig{
	{ID: "gpt-4o-mini", MaxToken: 2048},
}

type KeyState struct {
	Key          string
	FailureCount int
	LastUsed     time.Time
	LastSuccess  time.Time
}

// Client generates summaries through any OpenAI-compatible chat completions
// endpoint. Several comma-separated keys may be given; the one with the fewest
// recent failures is used.
type Client struct {
	baseURL     string
	keys        []*KeyState
	keyMu       sync.RWMutex
	clients     map[string]openai.Client
	clientsMu   sync.RWMutex
	temperature float64
	models      []ModelConfig
}

func NewClient(baseURL, apiKeys string, temperature float64, models []ModelConfig) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(models) == 0 {
		models = DefaultModels
	}

	var keys []*KeyState
	for _, k := range strings.Split(apiKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, &KeyState{Key: k})
		}
	}

	if len(keys) == 0 {
		log.Println("Warning: No OpenAI-compatible API keys provided")
	} else {
		log.Printf("Loaded %d OpenAI-compatible API key(s) for %s", len(keys), baseURL)
	}

	return &Client{
		baseURL:     baseURL,
		keys:        keys,
		clients:     make(map[string]openai.Client),
		temperature: temperature,
		models:      models,
	}
}

func (c *Client) getClient(key string) openai.Client {
	c.clientsMu.RLock()
	if client, ok := c.clients[key]; ok {
		c.clientsMu.RUnlock()
		return client
	}
	c.clientsMu.RUnlock()

	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()

	// Rate limits are retried by summarize.Service.
	client := openai.NewClient(
		option.WithBaseURL(c.baseURL),
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	)
	c.clients[key] = client
	return client
}

func (c *Client) getBestKey() *KeyState {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()

	if len(c.keys) == 0 {
		return nil
	}

	best := c.keys[0]
	for _, k := range c.keys[1:] {
		if k.FailureCount < best.FailureCount {
			best = k
		}
	}
	return best
}

func (c *Client) recordSuccess(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.LastSuccess = time.Now()
	key.LastUsed = time.Now()
	if key.FailureCount > 0 {
		key.FailureCount--
	}
}

func (c *Client) recordFailure(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.FailureCount++
	key.LastUsed = time.Now()
}

// Generate implements summarize.Generator. Models are tried in order; a rate
// limit is returned straight away so the caller can back off.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	keyState := c.getBestKey()
	if keyState == nil {
		return "", summarize.ErrNotConfigured
	}
	client := c.getClient(keyState.Key)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var lastErr error
	for _, model := range c.models {
		start := time.Now()
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: shared.ChatModel(model.ID),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(prompt),
			},
			Temperature: openai.Float(c.temperature),
			MaxTokens:   openai.Int(int64(model.MaxToken)),
		})
		if err != nil {
			err = toAPIError(err)
			log.Printf("Model %s error: %v", model.ID, err)
			if summarize.IsRateLimited(err) || ctx.Err() != nil {
				c.recordFailure(keyState)
				return "", err
			}
			lastErr = err
			continue
		}

		if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			log.Printf("Model %s returned empty response", model.ID)
			lastErr = summarize.ErrNoCandidates
			continue
		}
		if resp.Choices[0].FinishReason == "content_filter" {
			lastErr = summarize.ErrBlockedBySafety
			continue
		}

		c.recordSuccess(keyState)
		log.Printf("Model %s success (took %v, tokens: in=%d, out=%d)",
			model.ID, time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		return resp.Choices[0].Message.Content, nil
	}

	c.recordFailure(keyState)
	return "", fmt.Errorf("all models exhausted. Last error: %w", lastErr)
}

func toAPIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if apiErr.StatusCode == http.StatusTooManyRequests {
		msg = "Rate limit exceeded - please wait a moment and try again"
	}
	return &summarize.APIError{StatusCode: apiErr.StatusCode, Message: msg}
}
