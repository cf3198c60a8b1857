package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarizer/pkg/content"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	return store, path
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestFileStore_SaveItemFillsDefaults(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	item, err := store.SaveItem(ctx, NewItem{
		URL:     "https://www.example.com/posts/go-channels-explained",
		Type:    content.TypeArticle,
		Summary: "one two three four five",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Go Channels Explained", item.Title)
	assert.Equal(t, "example.com", item.Source)
	assert.False(t, item.IsPlayed)
	assert.Equal(t, 2, item.EstimatedDuration)
	assert.False(t, item.DateAdded.IsZero())
}

func TestFileStore_CRUD(t *testing.T) {
	store, path := newTestFileStore(t)
	store.now = steppingClock()
	ctx := context.Background()

	first, err := store.SaveItem(ctx, NewItem{URL: "https://a.example/1", Title: "First", Type: content.TypeArticle, Summary: "a"})
	require.NoError(t, err)
	second, err := store.SaveItem(ctx, NewItem{URL: "https://youtu.be/dQw4w9WgXcQ", Title: "Second", Type: content.TypeVideo, Summary: "b"})
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[1].ID)

	videos, err := store.GetByType(ctx, content.TypeVideo)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Second", videos[0].Title)

	exists, err := store.ExistsByURL(ctx, "https://a.example/1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.ExistsByURL(ctx, "https://a.example/2")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Update(ctx, first.ID, Played()))
	got, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPlayed)
	assert.Equal(t, "First", got.Title)

	assert.ErrorIs(t, store.Update(ctx, "missing", Played()), ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, first.ID, Fields{}), ErrNoFields)

	// Reopen to make sure everything was persisted.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err = reopened.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPlayed)

	require.NoError(t, reopened.Delete(ctx, second.ID))
	assert.ErrorIs(t, reopened.Delete(ctx, second.ID), ErrNotFound)
	_, err = reopened.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_ReturnedItemsAreCopies(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	item, err := store.SaveItem(ctx, NewItem{URL: "https://a.example/1", Title: "Original"})
	require.NoError(t, err)
	item.Title = "Mutated"

	got, err := store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)
}

func TestFileStore_Settings(t *testing.T) {
	store, path := newTestFileStore(t)
	ctx := context.Background()

	assert.Equal(t, 1.0, Setting(ctx, store, KeyVoiceRate, 1.0))
	assert.True(t, Setting(ctx, store, KeyAutoPlayNext, true))

	require.NoError(t, store.SaveSetting(ctx, KeyVoiceRate, 1.5))
	require.NoError(t, store.SaveSetting(ctx, KeyAutoPlayNext, false))
	require.NoError(t, store.SaveSetting(ctx, KeyVoiceIndex, 2))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, Setting(ctx, reopened, KeyVoiceRate, 1.0))
	assert.False(t, Setting(ctx, reopened, KeyAutoPlayNext, true))
	assert.Equal(t, 2, Setting(ctx, reopened, KeyVoiceIndex, 0))

	// A value of the wrong type falls back to the default.
	assert.Equal(t, "fallback", Setting(ctx, reopened, KeyVoiceRate, "fallback"))

	all, err := reopened.AllSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.JSONEq(t, "1.5", string(all[KeyVoiceRate]))
}

func TestFileStore_ClearAll(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	_, err := store.SaveItem(ctx, NewItem{URL: "https://a.example/1"})
	require.NoError(t, err)
	require.NoError(t, store.SaveSetting(ctx, KeyVoicePitch, 1.2))

	require.NoError(t, store.ClearAll(ctx))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	_, ok, err := store.GetSetting(ctx, KeyVoicePitch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_ClearAllKeepsDataWhenSaveFails(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	item, err := store.SaveItem(ctx, NewItem{URL: "https://a.example/1"})
	require.NoError(t, err)

	// A regular file where the store's directory should be makes every save fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	store.path = filepath.Join(blocker, "library.json")

	require.Error(t, store.ClearAll(ctx))

	got, err := store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.URL, got.URL)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 0, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("word"))
	assert.Equal(t, 60, ReadingTime(repeatWord(150)))
	assert.Equal(t, 61, ReadingTime(repeatWord(151)))
}

func repeatWord(n int) string {
	b := make([]byte, 0, n*5)
	for i := 0; i < n; i++ {
		b = append(b, "word "...)
	}
	return string(b)
}
