package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const (
	defaultOEmbedEndpoint = "https://www.youtube.com/oembed"
	defaultVideoTitle     = "YouTube Video"
	thumbnailURLFormat    = "https://img.youtube.com/vi/%s/maxresdefault.jpg"
)

// Tried in order; the first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?v=([^"&?/\s]{11})`),
	regexp.MustCompile(`youtu\.be/([^"&?/\s]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([^"&?/\s]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([^"&?/\s]{11})`),
}

// VideoResolver turns video URLs into a canonical ID, a best-effort title
// and a thumbnail.
type VideoResolver struct {
	client         *http.Client
	oembedEndpoint string
}

func NewVideoResolver(oembedEndpoint string) *VideoResolver {
	if oembedEndpoint == "" {
		oembedEndpoint = defaultOEmbedEndpoint
	}
	return &VideoResolver{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		oembedEndpoint: oembedEndpoint,
	}
}

// VideoID extracts the 11 character video identifier.
func (v *VideoResolver) VideoID(videoURL string) (string, error) {
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(videoURL); len(match) > 1 && match[1] != "" {
			return match[1], nil
		}
	}
	return "", ErrUnresolvableVideo
}

// ThumbnailURL is derived from the video ID alone.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf(thumbnailURLFormat, videoID)
}

// Resolve builds the acquisition result for a video URL. Title lookup
// failures are logged and replaced by a placeholder.
func (v *VideoResolver) Resolve(ctx context.Context, videoURL string) *Result {
	videoID, err := v.VideoID(videoURL)
	if err != nil {
		return &Result{Success: false, URL: videoURL, Type: TypeVideo, Error: err.Error()}
	}

	title, err := v.lookupTitle(ctx, videoURL)
	if err != nil {
		log.Printf("Could not fetch video title for %s: %v", videoID, err)
		title = defaultVideoTitle
	}

	return &Result{
		Success:   true,
		Type:      TypeVideo,
		URL:       videoURL,
		VideoID:   videoID,
		Title:     title,
		Content:   videoURL,
		Method:    MethodYouTubeURL,
		Thumbnail: ThumbnailURL(videoID),
		Source:    SourceName(videoURL),
	}
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (v *VideoResolver) lookupTitle(ctx context.Context, videoURL string) (string, error) {
	endpoint := fmt.Sprintf("%s?url=%s&format=json", v.oembedEndpoint, url.QueryEscape(videoURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var data oembedResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decode oembed: %w", err)
	}
	if data.Title == "" {
		return defaultVideoTitle, nil
	}
	return data.Title, nil
}
