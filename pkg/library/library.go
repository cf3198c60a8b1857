package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"summarizer/pkg/content"
	"summarizer/pkg/narration"
	"summarizer/pkg/storage"
	"summarizer/pkg/summarize"
)

var (
	ErrEmptyURL      = errors.New("please enter a URL")
	ErrAlreadyExists = errors.New("this URL has already been processed")
	ErrNoSummarizer  = errors.New("no summarizer configured - set an API key first")
)

// ManualInputRequiredError means every automated strategy failed and the
// caller should ask the user to paste the text.
type ManualInputRequiredError struct {
	URL    string
	Errors []string
}

func (e *ManualInputRequiredError) Error() string {
	return fmt.Sprintf("automatic extraction failed for %s", e.URL)
}

// Acquirer is the content pipeline as seen by the library.
type Acquirer interface {
	Process(ctx context.Context, rawURL string) *content.Result
	ProcessManual(rawURL, text string) (*content.Result, error)
}

// Library ties acquisition, summarization and storage together.
type Library struct {
	store      storage.Store
	acquirer   Acquirer
	summarizer summarize.Summarizer
}

func New(store storage.Store, acquirer Acquirer, summarizer summarize.Summarizer) *Library {
	return &Library{store: store, acquirer: acquirer, summarizer: summarizer}
}

// Add acquires, summarizes and stores a URL.
func (l *Library) Add(ctx context.Context, rawURL string) (*storage.Item, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	normalized, err := content.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	exists, err := l.store.ExistsByURL(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing URL: %w", err)
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	result := l.acquirer.Process(ctx, normalized)
	if !result.Success {
		if result.RequiresManualInput {
			return nil, &ManualInputRequiredError{URL: result.URL, Errors: result.Errors}
		}
		return nil, errors.New(result.Error)
	}
	for _, e := range result.Errors {
		log.Printf("Recovered from fetch failure for %s: %s", normalized, e)
	}

	return l.summarizeAndSave(ctx, result)
}

// AddManual stores pasted text for a URL that could not be fetched.
func (l *Library) AddManual(ctx context.Context, rawURL, text string) (*storage.Item, error) {
	normalized, err := content.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	result, err := l.acquirer.ProcessManual(normalized, text)
	if err != nil {
		return nil, err
	}
	return l.summarizeAndSave(ctx, result)
}

func (l *Library) summarizeAndSave(ctx context.Context, result *content.Result) (*storage.Item, error) {
	if l.summarizer == nil {
		return nil, ErrNoSummarizer
	}

	sum := l.summarizer.Summarize(ctx, result)
	if !sum.Success {
		return nil, fmt.Errorf("summarization failed: %s", sum.Error)
	}
	log.Printf("Summarized %s via %s/%s", result.URL, result.Method, sum.Method)

	item, err := l.store.SaveItem(ctx, storage.NewItem{
		URL:             result.URL,
		Title:           result.Title,
		Type:            result.Type,
		OriginalContent: result.Content,
		Summary:         sum.Summary,
		Thumbnail:       result.Thumbnail,
		Source:          result.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	return item, nil
}

// Playlist returns stored items in narration order, newest first.
func (l *Library) Playlist(ctx context.Context, unplayedOnly bool) ([]storage.Item, error) {
	items, err := l.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if !unplayedOnly {
		return items, nil
	}
	var unplayed []storage.Item
	for _, item := range items {
		if !item.IsPlayed {
			unplayed = append(unplayed, item)
		}
	}
	return unplayed, nil
}

// LoadSettings reads narration settings, falling back to defaults per key.
func (l *Library) LoadSettings(ctx context.Context) narration.Settings {
	def := narration.DefaultSettings()
	return narration.Settings{
		Rate:         storage.Setting(ctx, l.store, storage.KeyVoiceRate, def.Rate),
		Pitch:        storage.Setting(ctx, l.store, storage.KeyVoicePitch, def.Pitch),
		VoiceIndex:   storage.Setting(ctx, l.store, storage.KeyVoiceIndex, def.VoiceIndex),
		AutoPlayNext: storage.Setting(ctx, l.store, storage.KeyAutoPlayNext, def.AutoPlayNext),
	}
}

func (l *Library) SaveSettings(ctx context.Context, s narration.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{storage.KeyVoiceRate, s.Rate},
		{storage.KeyVoicePitch, s.Pitch},
		{storage.KeyVoiceIndex, s.VoiceIndex},
		{storage.KeyAutoPlayNext, s.AutoPlayNext},
	}
	for _, v := range values {
		if err := l.store.SaveSetting(ctx, v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}
