package library

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarizer/pkg/content"
	"summarizer/pkg/narration"
	"summarizer/pkg/storage"
	"summarizer/pkg/summarize"
)

type mockAcquirer struct {
	ProcessFunc       func(ctx context.Context, rawURL string) *content.Result
	ProcessManualFunc func(rawURL, text string) (*content.Result, error)
	calls             []string
}

func (m *mockAcquirer) Process(ctx context.Context, rawURL string) *content.Result {
	m.calls = append(m.calls, rawURL)
	return m.ProcessFunc(ctx, rawURL)
}

func (m *mockAcquirer) ProcessManual(rawURL, text string) (*content.Result, error) {
	return m.ProcessManualFunc(rawURL, text)
}

type mockSummarizer struct {
	SummarizeFunc func(ctx context.Context, item *content.Result) *summarize.Result
}

func (m *mockSummarizer) Summarize(ctx context.Context, item *content.Result) *summarize.Result {
	return m.SummarizeFunc(ctx, item)
}

func okSummarizer() *mockSummarizer {
	return &mockSummarizer{SummarizeFunc: func(_ context.Context, item *content.Result) *summarize.Result {
		return &summarize.Result{Success: true, Summary: "summary of " + item.Title, Method: summarize.MethodTextContent}
	}}
}

func articleAcquirer() *mockAcquirer {
	return &mockAcquirer{ProcessFunc: func(_ context.Context, rawURL string) *content.Result {
		return &content.Result{
			Success: true,
			Type:    content.TypeArticle,
			URL:     rawURL,
			Title:   "Go Scheduling",
			Content: "article body",
			Method:  content.MethodDirectFetch,
			Source:  "example.com",
		}
	}}
}

func newTestStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "summaries.json"))
	require.NoError(t, err)
	return store
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	acq := articleAcquirer()
	lib := New(store, acq, okSummarizer())

	item, err := lib.Add(ctx, "  example.com/go-scheduling ")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/go-scheduling"}, acq.calls)
	assert.Equal(t, "https://example.com/go-scheduling", item.URL)
	assert.Equal(t, "summary of Go Scheduling", item.Summary)
	assert.Equal(t, "article body", item.OriginalContent)
	assert.False(t, item.IsPlayed)

	_, err = lib.Add(ctx, "https://example.com/go-scheduling")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Len(t, acq.calls, 1, "duplicates are rejected before fetching")
}

func TestAdd_InvalidInput(t *testing.T) {
	lib := New(newTestStore(t), articleAcquirer(), okSummarizer())

	_, err := lib.Add(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestAdd_ManualInputRequired(t *testing.T) {
	acq := &mockAcquirer{ProcessFunc: func(_ context.Context, rawURL string) *content.Result {
		return &content.Result{
			URL:                 rawURL,
			Error:               "Automatic extraction failed",
			Errors:              []string{"Direct fetch: HTTP 403", "Proxy 1: HTTP 500"},
			RequiresManualInput: true,
		}
	}}
	lib := New(newTestStore(t), acq, okSummarizer())

	_, err := lib.Add(context.Background(), "https://example.com/paywalled")

	var manual *ManualInputRequiredError
	require.ErrorAs(t, err, &manual)
	assert.Equal(t, "https://example.com/paywalled", manual.URL)
	assert.Equal(t, []string{"Direct fetch: HTTP 403", "Proxy 1: HTTP 500"}, manual.Errors)
}

func TestAdd_SummarizationFailureSavesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sum := &mockSummarizer{SummarizeFunc: func(context.Context, *content.Result) *summarize.Result {
		return &summarize.Result{Error: "Rate limit exceeded - please wait a moment and try again"}
	}}
	lib := New(store, articleAcquirer(), sum)

	_, err := lib.Add(ctx, "https://example.com/a")
	require.EqualError(t, err, "summarization failed: Rate limit exceeded - please wait a moment and try again")

	items, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = New(store, articleAcquirer(), nil).Add(ctx, "https://example.com/a")
	assert.ErrorIs(t, err, ErrNoSummarizer)
}

func TestAddManual(t *testing.T) {
	acq := &mockAcquirer{ProcessManualFunc: func(rawURL, text string) (*content.Result, error) {
		if len(text) < 100 {
			return nil, content.ErrManualContentTooShort
		}
		return &content.Result{Success: true, Type: content.TypeArticle, URL: rawURL, Title: "Pasted", Content: text, Method: content.MethodManualInput}, nil
	}}
	lib := New(newTestStore(t), acq, okSummarizer())

	_, err := lib.AddManual(context.Background(), "example.com/x", "short")
	assert.ErrorIs(t, err, content.ErrManualContentTooShort)

	item, err := lib.AddManual(context.Background(), "example.com/x", strings.Repeat("word ", 30))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", item.URL)
	assert.Equal(t, "summary of Pasted", item.Summary)
}

func TestPlaylist(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lib := New(store, articleAcquirer(), okSummarizer())

	first, err := lib.Add(ctx, "https://example.com/1")
	require.NoError(t, err)
	_, err = lib.Add(ctx, "https://example.com/2")
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, first.ID, storage.Played()))

	all, err := lib.Playlist(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unplayed, err := lib.Playlist(ctx, true)
	require.NoError(t, err)
	require.Len(t, unplayed, 1)
	assert.Equal(t, "https://example.com/2", unplayed[0].URL)
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	lib := New(store, nil, nil)

	assert.Equal(t, narration.DefaultSettings(), lib.LoadSettings(ctx))

	want := narration.Settings{Rate: 1.5, Pitch: 0.8, VoiceIndex: 2, AutoPlayNext: false}
	require.NoError(t, lib.SaveSettings(ctx, want))
	assert.Equal(t, want, lib.LoadSettings(ctx))

	require.NoError(t, store.SaveSetting(ctx, storage.KeyVoiceRate, "fast"))
	assert.Equal(t, 1.0, lib.LoadSettings(ctx).Rate, "undecodable values fall back to the default")
}

func TestFormatDate(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today", FormatDate(now.Add(-time.Hour), now))
	assert.Equal(t, "Yesterday", FormatDate(now.Add(-30*time.Hour), now))
	assert.Equal(t, "3 days ago", FormatDate(now.Add(-80*time.Hour), now))
	assert.Equal(t, "May 1, 2024", FormatDate(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), now))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "2:05", FormatDuration(125))
}
