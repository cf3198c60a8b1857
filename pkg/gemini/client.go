package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"summarizer/pkg/summarize"
)

const (
	defaultGeminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"
)

var ErrNetwork = errors.New("network error - please check your internet connection")

// Client generates text through the Gemini generateContent endpoint.
type Client struct {
	apiKey string
	client *http.Client
	apiURL string
}

type Option func(*Client)

// WithAPIURL points the client at a different model endpoint.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = apiURL
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new Gemini client
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 90 * time.Second},
		apiURL: defaultGeminiAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request types for Gemini API
type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []safetySetting   `json:"safetySettings,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type geminiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Generate implements summarize.Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.do(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
		SafetySettings: defaultSafetySettings,
	})
	if err != nil {
		return "", err
	}

	if resp.PromptFeedback.BlockReason != "" {
		return "", summarize.ErrBlockedBySafety
	}
	if len(resp.Candidates) == 0 {
		return "", summarize.ErrNoCandidates
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", summarize.ErrBlockedBySafety
	}
	if len(candidate.Content.Parts) == 0 {
		return "", summarize.ErrNoCandidates
	}
	return candidate.Content.Parts[0].Text, nil
}

// TestKey sends a tiny prompt to confirm the key is accepted.
func (c *Client) TestKey(ctx context.Context) error {
	resp, err := c.do(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: `Please respond with "API test successful" to confirm the connection.`}}}},
	})
	if err != nil {
		return err
	}
	if len(resp.Candidates) == 0 {
		return summarize.ErrNoCandidates
	}
	return nil
}

func (c *Client) do(ctx context.Context, body geminiRequest) (*geminiResponse, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, summarize.ErrNotConfigured
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.apiURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiError
		_ = json.Unmarshal(bodyBytes, &apiErr)
		return nil, &summarize.APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, apiErr.Error.Message),
		}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(bodyBytes, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &geminiResp, nil
}

func errorMessage(status int, detail string) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request - please check the content and try again"
	case http.StatusUnauthorized:
		return "Invalid API key - please check your Gemini API key in settings"
	case http.StatusForbidden:
		return "API access forbidden - please verify your API key permissions"
	case http.StatusNotFound:
		return "API endpoint not found - please try again later"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded - please wait a moment and try again"
	case http.StatusInternalServerError:
		return "Gemini API server error - please try again later"
	case http.StatusServiceUnavailable:
		return "Gemini API temporarily unavailable - please try again later"
	}
	if detail != "" {
		return detail
	}
	return fmt.Sprintf("API error (%d) - please try again", status)
}
