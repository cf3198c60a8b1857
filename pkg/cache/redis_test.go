package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "summarizer:setting:voice_rate", (&Cache{prefix: "summarizer"}).Key("setting", "voice_rate"))
	assert.Equal(t, "url:https://a.example", (&Cache{}).Key("url", "https://a.example"))
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url", "x")
	assert.Error(t, err)
}

func TestRedisCache_Integration(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Log("Warning: Error loading .env file")
	}
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis test: REDIS_URL not set")
	}

	c, err := NewRedisCache(url, "summarizer_test")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.DeletePrefix(ctx, "setting"))

	_, err = c.Get(ctx, c.Key("setting", "missing"))
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, c.Key("setting", "a"), "1", time.Minute))
	require.NoError(t, c.Set(ctx, c.Key("setting", "b"), "2", time.Minute))
	val, err := c.Get(ctx, c.Key("setting", "a"))
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	require.NoError(t, c.DeletePrefix(ctx, "setting"))
	_, err = c.Get(ctx, c.Key("setting", "b"))
	assert.ErrorIs(t, err, ErrMiss)
}
