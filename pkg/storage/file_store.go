package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"summarizer/pkg/content"
)

const fileSchemaVersion = "1"

// FileStore keeps items and settings in a single JSON document on disk.
type FileStore struct {
	path string
	now  func() time.Time

	mu   sync.RWMutex
	data *fileData
}

type fileData struct {
	Version   string                     `json:"version"`
	UpdatedAt time.Time                  `json:"updated_at"`
	Items     map[string]*Item           `json:"items"`
	Settings  map[string]json.RawMessage `json:"settings"`
}

func newFileData() *fileData {
	return &fileData{
		Version:  fileSchemaVersion,
		Items:    make(map[string]*Item),
		Settings: make(map[string]json.RawMessage),
	}
}

// NewFileStore opens path, creating an empty store if it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, now: time.Now}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = newFileData()
			return s.save()
		}
		return fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	data := newFileData()
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("store %s is corrupt: %w", s.path, err)
	}
	if data.Items == nil {
		data.Items = make(map[string]*Item)
	}
	if data.Settings == nil {
		data.Settings = make(map[string]json.RawMessage)
	}
	s.data = data
	return nil
}

func (s *FileStore) save() error {
	s.data.UpdatedAt = s.now()

	w, err := newAtomicWriter(s.path)
	if err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.data); err != nil {
		w.Abort()
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

func (s *FileStore) SaveItem(ctx context.Context, in NewItem) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := buildItem(uuid.NewString(), in, s.now())
	s.data.Items[item.ID] = item
	if err := s.save(); err != nil {
		delete(s.data.Items, item.ID)
		return nil, err
	}
	saved := *item
	return &saved, nil
}

func (s *FileStore) GetAll(ctx context.Context) ([]Item, error) {
	return s.collect(func(*Item) bool { return true }), nil
}

func (s *FileStore) GetByType(ctx context.Context, t content.ContentType) ([]Item, error) {
	return s.collect(func(item *Item) bool { return item.Type == t }), nil
}

func (s *FileStore) collect(keep func(*Item) bool) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.data.Items))
	for _, item := range s.data.Items {
		if keep(item) {
			items = append(items, *item)
		}
	}
	sortNewestFirst(items)
	return items
}

func sortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DateAdded.Equal(items[j].DateAdded) {
			return items[i].ID < items[j].ID
		}
		return items[i].DateAdded.After(items[j].DateAdded)
	})
}

func (s *FileStore) GetByID(ctx context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.data.Items[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := *item
	return &found, nil
}

func (s *FileStore) Update(ctx context.Context, id string, fields Fields) error {
	if fields.empty() {
		return ErrNoFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.data.Items[id]
	if !ok {
		return ErrNotFound
	}
	before := *item
	fields.apply(item)
	if err := s.save(); err != nil {
		*item = before
		return err
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.data.Items[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.data.Items, id)
	if err := s.save(); err != nil {
		s.data.Items[id] = item
		return err
	}
	return nil
}

func (s *FileStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.data.Items {
		if item.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (s *FileStore) GetSetting(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.data.Settings[key]
	return raw, ok, nil
}

func (s *FileStore) SaveSetting(ctx context.Context, key string, value any) error {
	raw, err := encodeSetting(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data.Settings[key]
	s.data.Settings[key] = raw
	if err := s.save(); err != nil {
		if had {
			s.data.Settings[key] = prev
		} else {
			delete(s.data.Settings, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) AllSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(s.data.Settings))
	for k, v := range s.data.Settings {
		out[k] = v
	}
	return out, nil
}

func (s *FileStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.data
	s.data = newFileData()
	if err := s.save(); err != nil {
		s.data = previous
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
