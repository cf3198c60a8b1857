package narration

import (
	"time"

	"summarizer/pkg/storage"
)

type EventType string

const (
	EventStart            EventType = "start"
	EventEnd              EventType = "end"
	EventPause            EventType = "pause"
	EventResume           EventType = "resume"
	EventError            EventType = "error"
	EventPlaylistComplete EventType = "playlist_complete"
)

// Event describes a playback transition. Title and Item are set for start
// events; Error is set for error events.
type Event struct {
	Type     EventType      `json:"type"`
	Title    string         `json:"title,omitempty"`
	Item     *storage.Item  `json:"item,omitempty"`
	Index    int            `json:"index"`
	Playlist []storage.Item `json:"playlist"`
	Error    string         `json:"error,omitempty"`
}

// Progress is a periodic sample of the current utterance.
type Progress struct {
	Fraction  float64       `json:"progress"`
	Elapsed   time.Duration `json:"elapsed"`
	Duration  time.Duration `json:"duration"`
	Remaining time.Duration `json:"remaining"`
}

// Listener receives events and progress samples in emission order. It may
// call back into the engine.
type Listener interface {
	OnEvent(Event)
	OnProgress(Progress)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	EventFunc    func(Event)
	ProgressFunc func(Progress)
}

func (l ListenerFuncs) OnEvent(e Event) {
	if l.EventFunc != nil {
		l.EventFunc(e)
	}
}

func (l ListenerFuncs) OnProgress(p Progress) {
	if l.ProgressFunc != nil {
		l.ProgressFunc(p)
	}
}
