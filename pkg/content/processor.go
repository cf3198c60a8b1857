package content

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// ProcessorConfig controls the acquisition chain.
type ProcessorConfig struct {
	Proxies        []Proxy
	FetchTimeout   time.Duration
	MaxBodySize    int64
	UserAgent      string
	OEmbedEndpoint string
	AllowLocalIPs  bool
}

// Processor turns a URL into readable content: video URLs go to the video
// resolver, articles walk the strategy chain in its fixed declared order.
type Processor struct {
	strategies []Strategy
	video      *VideoResolver
}

type ProcessorOption func(*Processor)

// WithStrategies replaces the fetch chain.
func WithStrategies(strategies ...Strategy) ProcessorOption {
	return func(p *Processor) {
		p.strategies = strategies
	}
}

func WithVideoResolver(v *VideoResolver) ProcessorOption {
	return func(p *Processor) {
		p.video = v
	}
}

func NewProcessor(cfg ProcessorConfig, opts ...ProcessorOption) *Processor {
	client := NewClient(
		WithTimeout(cfg.FetchTimeout),
		WithMaxBodySize(cfg.MaxBodySize),
		WithUserAgent(cfg.UserAgent),
		WithAllowLocalIPs(cfg.AllowLocalIPs),
	)
	reader := &pageReader{client: client, extractor: NewExtractor(), pdf: NewPDFParser()}

	proxies := cfg.Proxies
	if proxies == nil {
		proxies = DefaultProxies
	}

	strategies := []Strategy{&directStrategy{reader: reader}}
	for i, proxy := range proxies {
		strategies = append(strategies, &proxyStrategy{n: i + 1, proxy: proxy, reader: reader})
	}

	p := &Processor{
		strategies: strategies,
		video:      NewVideoResolver(cfg.OEmbedEndpoint),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates, classifies and acquires a URL. It never fails with an
// error value; every outcome is described by the returned Result.
func (p *Processor) Process(ctx context.Context, rawURL string) *Result {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return &Result{Success: false, URL: rawURL, Error: err.Error()}
	}

	if Classify(normalized) == TypeVideo {
		return p.video.Resolve(ctx, normalized)
	}
	return p.processArticle(ctx, normalized)
}

func (p *Processor) processArticle(ctx context.Context, articleURL string) *Result {
	var errs []string

	for _, strategy := range p.strategies {
		extraction, err := strategy.Acquire(ctx, articleURL)
		if err == nil && extraction != nil {
			log.Printf("Acquired %s via %s (%d chars)", articleURL, strategy.Method(), runeLen(extraction.Content))
			return &Result{
				Success: true,
				Type:    TypeArticle,
				URL:     articleURL,
				Title:   extraction.Title,
				Content: extraction.Content,
				Method:  strategy.Method(),
				Source:  SourceName(articleURL),
				Errors:  errs,
			}
		}
		if err == nil {
			err = ErrExtractionTooShort
		}
		if !IsRecoverable(err) {
			log.Printf("Unexpected %s failure for %s: %v", strategy.Label(), articleURL, err)
		}
		errs = append(errs, fmt.Sprintf("%s: %s", strategy.Label(), describe(err)))
	}

	log.Printf("All %d strategies failed for %s, manual input required", len(p.strategies), articleURL)
	return &Result{
		Success:             false,
		Type:                TypeArticle,
		URL:                 articleURL,
		Error:               "Automatic extraction failed",
		Errors:              errs,
		RequiresManualInput: true,
	}
}

// ProcessManual accepts pasted article text for a URL the chain could not
// read. Extraction is skipped.
func (p *Processor) ProcessManual(rawURL, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if runeLen(text) < MinContentLength {
		return nil, ErrManualContentTooShort
	}

	articleURL, err := NormalizeURL(rawURL)
	if err != nil {
		articleURL = rawURL
	}

	return &Result{
		Success: true,
		Type:    TypeArticle,
		URL:     articleURL,
		Title:   TitleFromURL(articleURL),
		Content: CleanText(text),
		Method:  MethodManualInput,
		Source:  SourceName(articleURL),
	}, nil
}

func describe(err error) string {
	msg := []rune(err.Error())
	if len(msg) == 0 {
		return "Unknown error"
	}
	return strings.ToUpper(string(msg[:1])) + string(msg[1:])
}
