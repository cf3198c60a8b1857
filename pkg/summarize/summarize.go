package summarize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"summarizer/pkg/content"
)

const (
	MethodDirectURL   = "direct_url"
	MethodTextContent = "text_content"

	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

var (
	ErrNotConfigured      = errors.New("summarizer API key not configured")
	ErrNoCandidates       = errors.New("no response generated from the model")
	ErrBlockedBySafety    = errors.New("content was blocked by safety filters")
	ErrValidationFailed   = errors.New("summary validation failed - content may not be accessible")
	ErrNothingToSummarize = errors.New("no content to summarize")
)

// Result is the outcome of summarizing one acquired item.
type Result struct {
	Success bool   `json:"success"`
	Summary string `json:"summary,omitempty"`
	Method  string `json:"method,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summarizer turns acquired content into narration text.
type Summarizer interface {
	Summarize(ctx context.Context, item *content.Result) *Result
}

// Generator sends a single prompt to a model backend and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-2xx answer from a model backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error (%d) - please try again", e.StatusCode)
}

// IsRateLimited reports whether err is an HTTP 429 from a backend.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Service builds prompts, retries rate-limited calls and post-processes the
// generated text.
type Service struct {
	gen        Generator
	maxRetries uint
	retryDelay time.Duration
}

type Option func(*Service)

// WithRetries sets how many times a rate-limited request is retried and the
// first delay. Later delays double.
func WithRetries(retries uint, delay time.Duration) Option {
	return func(s *Service) {
		s.maxRetries = retries
		s.retryDelay = delay
	}
}

func New(gen Generator, opts ...Option) *Service {
	s := &Service{
		gen:        gen,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Summarize(ctx context.Context, item *content.Result) *Result {
	if item == nil || !item.Success {
		return &Result{Error: ErrNothingToSummarize.Error()}
	}
	if item.Type == content.TypeVideo {
		return s.summarizeVideo(ctx, item.URL)
	}
	return s.summarizeArticle(ctx, item.Content, item.URL, item.Title)
}

func (s *Service) summarizeVideo(ctx context.Context, videoURL string) *Result {
	text, err := s.generate(ctx, VideoPrompt(videoURL))
	if err == nil && !ValidVideoSummary(text) {
		err = ErrValidationFailed
	}
	if err != nil {
		log.Printf("Video summarization error: %v", err)
		return &Result{Error: errorText(err, "Failed to summarize video")}
	}
	return &Result{Success: true, Summary: CleanSummaryText(text), Method: MethodDirectURL}
}

func (s *Service) summarizeArticle(ctx context.Context, text, articleURL, title string) *Result {
	out, err := s.generate(ctx, ArticlePrompt(text, articleURL, title))
	if err != nil {
		log.Printf("Article summarization error: %v", err)
		return &Result{Error: errorText(err, "Failed to summarize article")}
	}
	return &Result{Success: true, Summary: CleanSummaryText(out), Method: MethodTextContent}
}

// generate calls the backend, retrying only on rate limiting.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", ErrNotConfigured
	}

	operation := func() (string, error) {
		text, err := s.gen.Generate(ctx, prompt)
		if err != nil {
			if IsRateLimited(err) {
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		return text, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = s.retryDelay << s.maxRetries

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(s.maxRetries+1),
	)
}

func errorText(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
