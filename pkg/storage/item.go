package storage

import (
	"math"
	"strings"
	"time"

	"summarizer/pkg/content"
)

// Item is one summarized piece of content.
type Item struct {
	ID                string              `json:"id"`
	URL               string              `json:"url"`
	Title             string              `json:"title"`
	Type              content.ContentType `json:"type"`
	OriginalContent   string              `json:"original_content"`
	Summary           string              `json:"summary"`
	DateAdded         time.Time           `json:"date_added"`
	IsPlayed          bool                `json:"is_played"`
	EstimatedDuration int                 `json:"estimated_duration"` // seconds
	Thumbnail         string              `json:"thumbnail,omitempty"`
	Source            string              `json:"source"`
}

// NewItem carries the caller-supplied fields of an item; the store fills in
// the rest.
type NewItem struct {
	URL             string
	Title           string
	Type            content.ContentType
	OriginalContent string
	Summary         string
	Thumbnail       string
	Source          string
}

// Fields is a partial update. Nil fields are left untouched.
type Fields struct {
	Title    *string
	Summary  *string
	IsPlayed *bool
}

// Played is shorthand for marking an item as played.
func Played() Fields {
	played := true
	return Fields{IsPlayed: &played}
}

func (f Fields) apply(item *Item) {
	if f.Title != nil {
		item.Title = *f.Title
	}
	if f.Summary != nil {
		item.Summary = *f.Summary
	}
	if f.IsPlayed != nil {
		item.IsPlayed = *f.IsPlayed
	}
}

func (f Fields) empty() bool {
	return f.Title == nil && f.Summary == nil && f.IsPlayed == nil
}

// ReadingTime estimates narration length in whole seconds at 150 words per minute.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words*60) / 150))
}

func buildItem(id string, in NewItem, now time.Time) *Item {
	item := &Item{
		ID:                id,
		URL:               in.URL,
		Title:             in.Title,
		Type:              in.Type,
		OriginalContent:   in.OriginalContent,
		Summary:           in.Summary,
		DateAdded:         now,
		IsPlayed:          false,
		EstimatedDuration: ReadingTime(in.Summary),
		Thumbnail:         in.Thumbnail,
		Source:            in.Source,
	}
	if item.Title == "" {
		item.Title = content.TitleFromURL(in.URL)
	}
	if item.Source == "" {
		item.Source = content.SourceName(in.URL)
	}
	return item
}
