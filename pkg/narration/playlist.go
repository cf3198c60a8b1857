package narration

import (
	"context"

	"summarizer/pkg/storage"
)

// ItemUpdater persists partial item changes. storage.Store satisfies it.
type ItemUpdater interface {
	Update(ctx context.Context, id string, fields storage.Fields) error
}

// playlist is the engine-owned copy of the queued items plus a cursor that
// only ever points at a valid index (or 0 when empty).
type playlist struct {
	items  []storage.Item
	cursor int
	// played records, per item ID, whether the played flag was written
	// successfully since the playlist was loaded.
	played map[string]bool
}

func newPlaylist(items []storage.Item) playlist {
	owned := make([]storage.Item, len(items))
	copy(owned, items)
	return playlist{items: owned, played: make(map[string]bool)}
}

func (p *playlist) valid(i int) bool {
	return i >= 0 && i < len(p.items)
}

func (p *playlist) current() (storage.Item, bool) {
	if !p.valid(p.cursor) {
		return storage.Item{}, false
	}
	return p.items[p.cursor], true
}

func (p *playlist) last() bool {
	return p.cursor >= len(p.items)-1
}

func (p *playlist) seek(i int) bool {
	if !p.valid(i) {
		return false
	}
	p.cursor = i
	return true
}

func (p *playlist) snapshot() []storage.Item {
	if p.items == nil {
		return nil
	}
	out := make([]storage.Item, len(p.items))
	copy(out, p.items)
	return out
}

func (p *playlist) markPlayed(id string) {
	for i := range p.items {
		if p.items[i].ID == id {
			p.items[i].IsPlayed = true
		}
	}
}
