package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"summarizer/pkg/content"
	"summarizer/pkg/surreal"
)

const (
	itemsTable    = "summaries"
	settingsTable = "settings"
)

var itemFields = []string{
	"item_id", "url", "title", "type", "original_content", "summary",
	"date_added", "is_played", "estimated_duration", "thumbnail", "source",
}

// SurrealStore keeps items and settings in SurrealDB.
type SurrealStore struct {
	client *surreal.Client
	now    func() time.Time
}

// surrealItem is the stored shape of an Item. date_added is unix nanoseconds.
type surrealItem struct {
	ItemID            string `json:"item_id"`
	URL               string `json:"url"`
	Title             string `json:"title"`
	Type              string `json:"type"`
	OriginalContent   string `json:"original_content"`
	Summary           string `json:"summary"`
	DateAdded         int64  `json:"date_added"`
	IsPlayed          bool   `json:"is_played"`
	EstimatedDuration int    `json:"estimated_duration"`
	Thumbnail         string `json:"thumbnail"`
	Source            string `json:"source"`
}

func toSurrealItem(item *Item) surrealItem {
	return surrealItem{
		ItemID:            item.ID,
		URL:               item.URL,
		Title:             item.Title,
		Type:              string(item.Type),
		OriginalContent:   item.OriginalContent,
		Summary:           item.Summary,
		DateAdded:         item.DateAdded.UnixNano(),
		IsPlayed:          item.IsPlayed,
		EstimatedDuration: item.EstimatedDuration,
		Thumbnail:         item.Thumbnail,
		Source:            item.Source,
	}
}

func (r surrealItem) item() Item {
	return Item{
		ID:                r.ItemID,
		URL:               r.URL,
		Title:             r.Title,
		Type:              content.ContentType(r.Type),
		OriginalContent:   r.OriginalContent,
		Summary:           r.Summary,
		DateAdded:         time.Unix(0, r.DateAdded),
		IsPlayed:          r.IsPlayed,
		EstimatedDuration: r.EstimatedDuration,
		Thumbnail:         r.Thumbnail,
		Source:            r.Source,
	}
}

func NewSurrealStore(client *surreal.Client) *SurrealStore {
	store := &SurrealStore{
		client: client,
		now:    time.Now,
	}
	if err := store.Init(context.Background()); err != nil {
		// The schema may already exist or the DB may come up later.
		log.Printf("Warning: Failed to initialize SurrealDB schema: %v", err)
	}
	return store
}

func (s *SurrealStore) Init(ctx context.Context) error {
	query := `
		DEFINE TABLE IF NOT EXISTS summaries SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS item_id ON summaries TYPE string;
		DEFINE FIELD IF NOT EXISTS url ON summaries TYPE string;
		DEFINE FIELD IF NOT EXISTS title ON summaries TYPE string;
		DEFINE FIELD IF NOT EXISTS type ON summaries TYPE string;
		DEFINE FIELD IF NOT EXISTS original_content ON summaries TYPE string;
		DEFINE FIELD IF NOT EXISTS summary ON summaries TYPE string;
		DEFINE FIELD IF NOT EXISTS date_added ON summaries TYPE int;
		DEFINE FIELD IF NOT EXISTS is_played ON summaries TYPE bool;
		DEFINE FIELD IF NOT EXISTS estimated_duration ON summaries TYPE int;
		DEFINE FIELD IF NOT EXISTS thumbnail ON summaries TYPE string;
		DEFINE FIELD IF NOT EXISTS source ON summaries TYPE string;
		DEFINE INDEX IF NOT EXISTS summaries_item_id ON summaries FIELDS item_id UNIQUE;
		DEFINE INDEX IF NOT EXISTS summaries_date_added ON summaries FIELDS date_added;
		DEFINE INDEX IF NOT EXISTS summaries_type ON summaries FIELDS type;
		DEFINE INDEX IF NOT EXISTS summaries_is_played ON summaries FIELDS is_played;
		DEFINE INDEX IF NOT EXISTS summaries_url ON summaries FIELDS url;

		DEFINE TABLE IF NOT EXISTS settings SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS key ON settings TYPE string;
		DEFINE FIELD IF NOT EXISTS value ON settings TYPE string;
	`
	_, err := s.client.Query(ctx, query, nil)
	return err
}

func (s *SurrealStore) SaveItem(ctx context.Context, in NewItem) (*Item, error) {
	item := buildItem(uuid.NewString(), in, s.now())
	if _, err := s.client.Create(ctx, itemsTable, toSurrealItem(item)); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	return item, nil
}

func (s *SurrealStore) find(ctx context.Context, filter map[string]interface{}) ([]Item, error) {
	rows, err := s.client.Find(ctx, itemsTable, itemFields, filter, "date_added", true)
	if err != nil {
		return nil, err
	}
	return decodeItems(rows)
}

func decodeItems(rows []map[string]interface{}) ([]Item, error) {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		// Round-trip through JSON so numeric types from the driver collapse to
		// the struct's field types.
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
		var r surrealItem
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		items = append(items, r.item())
	}
	return items, nil
}

func (s *SurrealStore) GetAll(ctx context.Context) ([]Item, error) {
	return s.find(ctx, nil)
}

func (s *SurrealStore) GetByType(ctx context.Context, t content.ContentType) ([]Item, error) {
	return s.find(ctx, map[string]interface{}{"type": string(t)})
}

func (s *SurrealStore) GetByID(ctx context.Context, id string) (*Item, error) {
	items, err := s.find(ctx, map[string]interface{}{"item_id": id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (s *SurrealStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	rows, err := s.client.Find(ctx, itemsTable, []string{"item_id"}, map[string]interface{}{"url": url}, "", false)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *SurrealStore) Update(ctx context.Context, id string, fields Fields) error {
	if fields.empty() {
		return ErrNoFields
	}

	vars := map[string]interface{}{"item_id": id}
	var sets []string
	if fields.Title != nil {
		sets = append(sets, "title = $title")
		vars["title"] = *fields.Title
	}
	if fields.Summary != nil {
		sets = append(sets, "summary = $summary", "estimated_duration = $estimated_duration")
		vars["summary"] = *fields.Summary
		vars["estimated_duration"] = ReadingTime(*fields.Summary)
	}
	if fields.IsPlayed != nil {
		sets = append(sets, "is_played = $is_played")
		vars["is_played"] = *fields.IsPlayed
	}

	query := fmt.Sprintf("UPDATE summaries SET %s WHERE item_id = $item_id RETURN item_id;", strings.Join(sets, ", "))
	rows, err := s.client.Rows(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SurrealStore) Delete(ctx context.Context, id string) error {
	rows, err := s.client.Rows(ctx, `DELETE summaries WHERE item_id = $item_id RETURN BEFORE;`, map[string]interface{}{"item_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SurrealStore) GetSetting(ctx context.Context, key string) ([]byte, bool, error) {
	rows, err := s.client.Rows(ctx, `SELECT value FROM type::thing("settings", $key);`, map[string]interface{}{"key": key})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	value, ok := rows[0]["value"].(string)
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (s *SurrealStore) SaveSetting(ctx context.Context, key string, value any) error {
	raw, err := encodeSetting(key, value)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO settings (id, key, value)
		VALUES (type::thing("settings", $key), $key, $value)
		ON DUPLICATE KEY UPDATE value = $value;
	`
	_, err = s.client.Query(ctx, query, map[string]interface{}{
		"key":   key,
		"value": string(raw),
	})
	return err
}

func (s *SurrealStore) AllSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.client.Find(ctx, settingsTable, []string{"key", "value"}, nil, "", false)
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		key, _ := row["key"].(string)
		value, _ := row["value"].(string)
		if key != "" {
			out[key] = json.RawMessage(value)
		}
	}
	return out, nil
}

func (s *SurrealStore) ClearAll(ctx context.Context) error {
	_, err := s.client.Query(ctx, `DELETE summaries; DELETE settings;`, nil)
	return err
}

func (s *SurrealStore) Close() error {
	s.client.Close()
	return nil
}
