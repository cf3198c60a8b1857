package storage

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarizer/pkg/content"
	"summarizer/pkg/surreal"
)

func TestSurrealStore_Integration(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Log("Warning: Error loading .env file")
	}

	host := os.Getenv("SURREAL_DB_HOST")
	user := os.Getenv("SURREAL_DB_USER")
	pass := os.Getenv("SURREAL_DB_PASS")
	if host == "" || user == "" || pass == "" {
		t.Skip("Skipping SurrealDB test: Missing environment variables")
	}

	client, err := surreal.NewClient(host, user, pass, "summarizer_test", "library_test")
	require.NoError(t, err)
	store := NewSurrealStore(client)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.ClearAll(ctx))

	first, err := store.SaveItem(ctx, NewItem{URL: "https://a.example/one", Type: content.TypeArticle, Summary: "short summary"})
	require.NoError(t, err)
	second, err := store.SaveItem(ctx, NewItem{URL: "https://youtu.be/dQw4w9WgXcQ", Title: "Video", Type: content.TypeVideo, Summary: "video summary"})
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	videos, err := store.GetByType(ctx, content.TypeVideo)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	exists, err := store.ExistsByURL(ctx, "https://a.example/one")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Update(ctx, first.ID, Played()))
	got, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPlayed)
	assert.Equal(t, "One", got.Title)

	require.NoError(t, store.SaveSetting(ctx, KeyVoiceRate, 1.5))
	require.NoError(t, store.SaveSetting(ctx, KeyVoiceRate, 1.75))
	assert.Equal(t, 1.75, Setting(ctx, store, KeyVoiceRate, 1.0))

	require.NoError(t, store.Delete(ctx, first.ID))
	assert.ErrorIs(t, store.Delete(ctx, first.ID), ErrNotFound)

	require.NoError(t, store.ClearAll(ctx))
}
