package gemini

import "summarizer/pkg/summarize"

// NewSummarizer wraps a Client in the shared summarization service. It
// returns nil when no key is configured.
func NewSummarizer(apiKey, apiURL string, opts ...summarize.Option) *summarize.Service {
	if apiKey == "" {
		return nil
	}
	return summarize.New(NewClient(apiKey, WithAPIURL(apiURL)), opts...)
}
