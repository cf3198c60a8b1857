package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"summarizer/pkg/content"
)

var (
	ErrNotFound = errors.New("item not found")
	ErrNoFields = errors.New("no fields to update")
)

// Setting keys shared by every backend.
const (
	KeyVoiceRate    = "voice_rate"
	KeyVoicePitch   = "voice_pitch"
	KeyVoiceIndex   = "voice_index"
	KeyAutoPlayNext = "auto_play_next"
	KeyGeminiAPIKey = "gemini_api_key"
)

// Store persists summarized items and user settings.
type Store interface {
	SaveItem(ctx context.Context, in NewItem) (*Item, error)
	// GetAll returns every item, newest first.
	GetAll(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	GetByType(ctx context.Context, t content.ContentType) ([]Item, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// GetSetting returns the raw JSON value of a setting and whether it exists.
	GetSetting(ctx context.Context, key string) ([]byte, bool, error)
	SaveSetting(ctx context.Context, key string, value any) error
	AllSettings(ctx context.Context) (map[string]json.RawMessage, error)

	ClearAll(ctx context.Context) error
	Close() error
}

// Setting reads a typed setting, returning def when the key is missing or
// cannot be decoded as T.
func Setting[T any](ctx context.Context, s Store, key string, def T) T {
	raw, ok, err := s.GetSetting(ctx, key)
	if err != nil {
		log.Printf("Warning: failed to read setting %s: %v", key, err)
		return def
	}
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("Warning: setting %s has unexpected value %s: %v", key, raw, err)
		return def
	}
	return v
}

func encodeSetting(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	return data, nil
}
