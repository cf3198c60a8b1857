package content

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// MinContentLength is the shortest cleaned text accepted from any strategy.
	MinContentLength = 100
	// BodyCandidateThreshold is the text length a main-content candidate must exceed.
	BodyCandidateThreshold = 500
)

var boilerplateSelectors = []string{
	"script", "style", "nav", "footer", "aside", "header",
	".advertisement", ".ads", ".social-share", ".comments",
	".sidebar", ".menu", ".navigation", ".breadcrumb",
}

var titleSelectors = []string{
	"h1",
	".title",
	".post-title",
	".article-title",
	".entry-title",
	"title",
}

var bodySelectors = []string{
	"article",
	`[role="main"]`,
	"main",
	".content",
	".post-content",
	".entry-content",
	".article-body",
	".article-content",
	".post-body",
	".story-body",
}

// Extractor pulls a title and readable body text out of HTML using ordered
// selector heuristics.
type Extractor struct {
	minContentLength int
	bodyThreshold    int
}

func NewExtractor() *Extractor {
	return &Extractor{
		minContentLength: MinContentLength,
		bodyThreshold:    BodyCandidateThreshold,
	}
}

// Extract parses markup and returns the cleaned title and body. The error is
// ErrExtractionTooShort when the body is under the minimum length; the
// extraction is still returned so callers can inspect it.
func (e *Extractor) Extract(markup []byte, sourceURL string) (*Extraction, error) {
	root, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	doc.Find(strings.Join(boilerplateSelectors, ", ")).Remove()

	result := &Extraction{
		Title:   e.extractTitle(doc, sourceURL),
		Content: e.extractBody(doc),
	}

	if runeLen(result.Content) < e.minContentLength {
		return result, ErrExtractionTooShort
	}
	return result, nil
}

func (e *Extractor) extractTitle(doc *goquery.Document, sourceURL string) string {
	for _, selector := range titleSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return CleanText(text)
		}
	}
	return TitleFromURL(sourceURL)
}

func (e *Extractor) extractBody(doc *goquery.Document) string {
	for _, selector := range bodySelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if runeLen(text) > e.bodyThreshold {
			return CleanText(text)
		}
	}
	return CleanText(doc.Find("body").First().Text())
}
