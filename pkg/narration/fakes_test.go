package narration

import (
	"context"
	"errors"
	"sync"
	"time"

	"summarizer/pkg/storage"
)

type fakeSpeaker struct {
	mu         sync.Mutex
	utterances []Utterance
	handlers   []func(Signal)
	cancels    int
	pauses     int
	resumes    int
	voices     []Voice
	speakErr   error
}

func (f *fakeSpeaker) Speak(u Utterance, on func(Signal)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speakErr != nil {
		return f.speakErr
	}
	f.utterances = append(f.utterances, u)
	f.handlers = append(f.handlers, on)
	return nil
}

func (f *fakeSpeaker) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return nil
}

func (f *fakeSpeaker) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return nil
}

func (f *fakeSpeaker) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeSpeaker) Voices() []Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Voice(nil), f.voices...)
}

// emit delivers sig to the handler of the i-th utterance.
func (f *fakeSpeaker) emit(i int, sig Signal) {
	f.mu.Lock()
	on := f.handlers[i]
	f.mu.Unlock()
	on(sig)
}

func (f *fakeSpeaker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.utterances)
}

func (f *fakeSpeaker) utterance(i int) Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.utterances[i]
}

type fakeUpdater struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]int // remaining failures per ID
}

func (f *fakeUpdater) Update(ctx context.Context, id string, fields storage.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if f.fail[id] > 0 {
		f.fail[id]--
		return errors.New("store unavailable")
	}
	return nil
}

func (f *fakeUpdater) updated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// recorder captures events and progress samples in delivery order.
type recorder struct {
	mu       sync.Mutex
	events   []Event
	progress []Progress
	order    []string
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.order = append(r.order, string(e.Type))
}

func (r *recorder) OnProgress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
	r.order = append(r.order, "progress")
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recorder) samples() []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Progress(nil), r.progress...)
}

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func words(n int) string {
	b := make([]byte, 0, n*5)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, "word"...)
	}
	return string(b)
}

func testItems() []storage.Item {
	return []storage.Item{
		{ID: "a", Title: "Alpha", Summary: "alpha summary text"},
		{ID: "b", Title: "Beta", Summary: "beta summary text"},
		{ID: "c", Title: "Gamma", Summary: "gamma summary text"},
	}
}
