package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoID(t *testing.T) {
	resolver := NewVideoResolver("")

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"Watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"Watch URL with extra params", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"Short link", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"Embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"Legacy v path", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"Shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := resolver.VideoID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
			assert.Len(t, id, 11)

			again, err := resolver.VideoID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, id, again)
		})
	}
}

func TestVideoID_Unresolvable(t *testing.T) {
	_, err := NewVideoResolver("").VideoID("https://www.youtube.com/feed/subscriptions")
	assert.ErrorIs(t, err, ErrUnresolvableVideo)
}

func TestResolve_UsesOEmbedTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Never Gonna Give You Up","author_name":"Rick"}`))
	}))
	defer server.Close()

	result := NewVideoResolver(server.URL).Resolve(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.True(t, result.Success)
	assert.Equal(t, TypeVideo, result.Type)
	assert.Equal(t, MethodYouTubeURL, result.Method)
	assert.Equal(t, "Never Gonna Give You Up", result.Title)
	assert.Equal(t, "dQw4w9WgXcQ", result.VideoID)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", result.Thumbnail)
}

func TestResolve_TitleFailureIsNotFatal(t *testing.T) {
	for _, handler := range []http.HandlerFunc{
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{not json`)) },
	} {
		server := httptest.NewServer(handler)
		result := NewVideoResolver(server.URL).Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
		server.Close()

		require.True(t, result.Success)
		assert.Equal(t, "YouTube Video", result.Title)
		assert.Equal(t, ThumbnailURL("dQw4w9WgXcQ"), result.Thumbnail)
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	result := NewVideoResolver("").Resolve(context.Background(), "https://www.youtube.com/")
	assert.False(t, result.Success)
	assert.Empty(t, result.Content)
	assert.Equal(t, ErrUnresolvableVideo.Error(), result.Error)
}
