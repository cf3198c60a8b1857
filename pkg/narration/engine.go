package narration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"summarizer/pkg/storage"
)

const (
	DefaultInterItemPause   = time.Second
	DefaultProgressInterval = 100 * time.Millisecond
	DefaultLanguage         = "en"

	voiceTestTitle = "Voice Test"
	voiceTestText  = "This is a test of the text-to-speech voice. How does it sound?"
	updateTimeout  = 5 * time.Second
)

var ErrClosed = errors.New("narration engine closed")

type State int

const (
	StateIdle State = iota
	StateSpeaking
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateSpeaking:
		return "speaking"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

type Option func(*Engine)

// WithInterItemPause sets the gap before auto-playing the next item.
func WithInterItemPause(d time.Duration) Option {
	return func(e *Engine) { e.interItemPause = d }
}

func WithProgressInterval(d time.Duration) Option {
	return func(e *Engine) { e.progressInterval = d }
}

// WithLanguage sets the language tag prefix voices are filtered by.
func WithLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type listenerEntry struct {
	id       int
	listener Listener
}

// Engine narrates text and playlists through a Speaker. At most one
// utterance is active at a time: starting a new one cancels the previous one
// and signals from superseded utterances are discarded.
//
// Listeners are never invoked while the engine holds a lock, so they may
// call any engine method.
type Engine struct {
	speaker          Speaker
	updater          ItemUpdater
	interItemPause   time.Duration
	progressInterval time.Duration
	language         string
	now              func() time.Time
	clock            *Clock
	ctx              context.Context
	cancel           context.CancelFunc

	// opMu serializes operations that talk to the speaker.
	opMu sync.Mutex
	// emitMu is held by whichever goroutine is delivering queued events.
	emitMu sync.Mutex

	mu        sync.Mutex
	state     State
	settings  Settings
	voice     *Voice
	list      playlist
	complete  bool
	gen       uint64
	live      bool
	text      string
	title     string
	item      *storage.Item
	duration  time.Duration
	startTime time.Time
	advance   *time.Timer
	listeners []listenerEntry
	nextID    int
	outbox    []func(Listener)
	closed    bool
}

// New creates an engine. updater may be nil, in which case played flags are
// only tracked in the engine's own playlist copy.
func New(speaker Speaker, updater ItemUpdater, opts ...Option) *Engine {
	e := &Engine{
		speaker:          speaker,
		updater:          updater,
		interItemPause:   DefaultInterItemPause,
		progressInterval: DefaultProgressInterval,
		language:         DefaultLanguage,
		now:              time.Now,
		settings:         DefaultSettings(),
		list:             newPlaylist(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.clock = NewClock(e.progressInterval)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.voice = defaultVoice(e.Voices())
	return e
}

// Speak narrates free text. Any current utterance is cancelled first.
func (e *Engine) Speak(text, title string) error {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.speak(text, title, nil)
}

// TestVoice speaks a short sample with the current settings.
func (e *Engine) TestVoice() error {
	return e.Speak(voiceTestText, voiceTestTitle)
}

func (e *Engine) speak(text, title string, item *storage.Item) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	wasLive := e.live
	e.resetLocked()
	gen := e.gen
	e.live = true
	e.text = text
	e.title = title
	e.item = item
	e.duration = EstimateDuration(text, e.settings.Rate)
	e.startTime = e.now()
	u := Utterance{
		Text:  text,
		Rate:  e.settings.Rate,
		Pitch: e.settings.Pitch,
		Voice: copyVoice(e.voice),
	}
	e.mu.Unlock()

	if wasLive {
		if err := e.speaker.Cancel(); err != nil {
			log.Printf("Warning: failed to cancel previous utterance: %v", err)
		}
	}

	if err := e.speaker.Speak(u, func(sig Signal) { e.handleSignal(gen, sig) }); err != nil {
		e.mu.Lock()
		if e.gen == gen {
			e.live = false
			e.state = StateIdle
			e.enqueueEventLocked(Event{Type: EventError, Error: err.Error()})
		}
		e.mu.Unlock()
		return fmt.Errorf("failed to start speech: %w", err)
	}
	return nil
}

// resetLocked supersedes the current utterance and clears transient
// playback state.
func (e *Engine) resetLocked() {
	e.gen++
	e.live = false
	e.state = StateIdle
	e.clock.Stop()
	if e.advance != nil {
		e.advance.Stop()
		e.advance = nil
	}
	e.text = ""
	e.title = ""
	e.item = nil
	e.duration = 0
	e.startTime = time.Time{}
}

func (e *Engine) Pause() {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.state != StateSpeaking {
		e.mu.Unlock()
		return
	}
	gen := e.gen
	e.mu.Unlock()

	if err := e.speaker.Pause(); err != nil {
		log.Printf("Warning: failed to pause speech: %v", err)
		return
	}

	e.mu.Lock()
	if e.gen == gen {
		e.pauseLocked()
	}
	e.mu.Unlock()
}

func (e *Engine) Resume() {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.state != StatePaused {
		e.mu.Unlock()
		return
	}
	gen := e.gen
	e.mu.Unlock()

	if err := e.speaker.Resume(); err != nil {
		log.Printf("Warning: failed to resume speech: %v", err)
		return
	}

	e.mu.Lock()
	if e.gen == gen {
		e.resumeLocked(gen)
	}
	e.mu.Unlock()
}

func (e *Engine) pauseLocked() {
	if e.state != StateSpeaking {
		return
	}
	e.state = StatePaused
	e.clock.Stop()
	e.enqueueEventLocked(Event{Type: EventPause})
}

func (e *Engine) resumeLocked(gen uint64) {
	if e.state != StatePaused {
		return
	}
	e.state = StateSpeaking
	e.startSamplingLocked(gen)
	e.enqueueEventLocked(Event{Type: EventResume})
}

// Stop cancels speech and any pending auto-advance. The playlist and its
// cursor are kept.
func (e *Engine) Stop() {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()

	if err := e.speaker.Cancel(); err != nil {
		log.Printf("Warning: failed to cancel speech: %v", err)
	}
}

// PlayPlaylist replaces the playlist with a copy of items and plays the item
// at start. Playback of the previous playlist stops either way; an
// out-of-range start loads the playlist without playing.
func (e *Engine) PlayPlaylist(items []storage.Item, start int) error {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	wasLive := e.live
	e.resetLocked()
	e.list = newPlaylist(items)
	e.complete = false
	ok := e.list.seek(start)
	e.mu.Unlock()

	if wasLive {
		if err := e.speaker.Cancel(); err != nil {
			log.Printf("Warning: failed to cancel previous utterance: %v", err)
		}
	}

	if !ok {
		return nil
	}
	return e.playCurrent()
}

// PlayNext skips to the next item, or reports the playlist complete when the
// current item is the last one.
func (e *Engine) PlayNext() error {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if len(e.list.items) == 0 {
		e.mu.Unlock()
		return nil
	}
	if e.list.last() {
		e.complete = true
		e.enqueueEventLocked(Event{Type: EventPlaylistComplete})
		e.mu.Unlock()
		return nil
	}
	e.list.seek(e.list.cursor + 1)
	e.mu.Unlock()

	return e.playCurrent()
}

func (e *Engine) PlayPrevious() error {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	ok := e.list.seek(e.list.cursor - 1)
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return e.playCurrent()
}

func (e *Engine) SkipToItem(index int) error {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	ok := e.list.seek(index)
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return e.playCurrent()
}

func (e *Engine) playCurrent() error {
	e.mu.Lock()
	item, ok := e.list.current()
	if ok {
		e.complete = false
	}
	e.mu.Unlock()
	if !ok {
		return nil
	}

	if err := e.speak(item.Summary, item.Title, &item); err != nil {
		return err
	}
	e.markPlayed(item)
	return nil
}

// markPlayed writes the played flag once per item per playlist load.
func (e *Engine) markPlayed(item storage.Item) {
	if item.ID == "" {
		return
	}

	e.mu.Lock()
	if e.list.played[item.ID] {
		e.mu.Unlock()
		return
	}
	e.list.markPlayed(item.ID)
	e.mu.Unlock()

	var err error
	if e.updater != nil {
		ctx, cancel := context.WithTimeout(e.ctx, updateTimeout)
		err = e.updater.Update(ctx, item.ID, storage.Played())
		cancel()
		if err != nil {
			log.Printf("Warning: failed to mark %s as played: %v", item.ID, err)
		}
	}

	e.mu.Lock()
	if !e.list.played[item.ID] {
		e.list.played[item.ID] = err == nil
	}
	e.mu.Unlock()
}

func (e *Engine) handleSignal(gen uint64, sig Signal) {
	var retry *storage.Item

	e.mu.Lock()
	if gen != e.gen || !e.live {
		e.mu.Unlock()
		return
	}

	switch sig.Type {
	case SignalStart:
		if e.state == StateIdle {
			e.state = StateSpeaking
			e.startSamplingLocked(gen)
			ev := Event{Type: EventStart, Title: e.title}
			if e.item != nil {
				item := *e.item
				ev.Item = &item
			}
			e.enqueueEventLocked(ev)
		}
	case SignalPause:
		e.pauseLocked()
	case SignalResume:
		e.resumeLocked(gen)
	case SignalEnd:
		retry = e.finishLocked(gen)
	case SignalError:
		e.live = false
		e.state = StateIdle
		e.clock.Stop()
		code := sig.Code
		if code == "" {
			code = "unknown"
		}
		e.enqueueEventLocked(Event{Type: EventError, Error: code})
	}
	e.mu.Unlock()

	if retry != nil {
		e.markPlayed(*retry)
	}
	e.flushFromCallback()
}

// finishLocked handles natural completion. It returns the finished item when
// its played flag still needs writing.
func (e *Engine) finishLocked(gen uint64) *storage.Item {
	e.live = false
	e.state = StateIdle
	e.clock.Stop()
	e.enqueueEventLocked(Event{Type: EventEnd})

	if e.item == nil {
		return nil
	}

	var retry *storage.Item
	if ok, attempted := e.list.played[e.item.ID]; attempted && !ok {
		item := *e.item
		retry = &item
	}

	if !e.settings.AutoPlayNext {
		return retry
	}
	if e.list.last() {
		// PlayNext on the last item may already have reported completion.
		if !e.complete {
			e.complete = true
			e.enqueueEventLocked(Event{Type: EventPlaylistComplete})
		}
		return retry
	}

	e.list.seek(e.list.cursor + 1)
	e.advance = time.AfterFunc(e.interItemPause, func() { e.autoAdvance(gen) })
	return retry
}

func (e *Engine) autoAdvance(gen uint64) {
	defer e.flush()
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.closed || e.gen != gen {
		e.mu.Unlock()
		return
	}
	e.advance = nil
	e.mu.Unlock()

	if err := e.playCurrent(); err != nil {
		log.Printf("Warning: failed to play next item: %v", err)
	}
}

func (e *Engine) startSamplingLocked(gen uint64) {
	e.clock.Start(func() { e.sample(gen) })
}

func (e *Engine) sample(gen uint64) {
	e.mu.Lock()
	if e.gen != gen || e.state != StateSpeaking {
		e.mu.Unlock()
		return
	}
	p := e.progressLocked()
	e.outbox = append(e.outbox, func(l Listener) { l.OnProgress(p) })
	e.mu.Unlock()

	e.flushFromCallback()
}

// progressLocked measures elapsed time from the utterance start. Paused
// intervals are included.
func (e *Engine) progressLocked() Progress {
	elapsed := e.now().Sub(e.startTime)
	if elapsed < 0 {
		elapsed = 0
	}

	p := Progress{Elapsed: elapsed, Duration: e.duration, Fraction: 1}
	if e.duration > 0 {
		p.Fraction = math.Min(float64(elapsed)/float64(e.duration), 1)
	}
	if remaining := e.duration - elapsed; remaining > 0 {
		p.Remaining = remaining
	}
	return p
}

// Progress samples the current utterance. It is zero when nothing is being
// narrated.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.live {
		return Progress{}
	}
	return e.progressLocked()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsPlaying is true while an utterance is speaking or paused.
func (e *Engine) IsPlaying() bool {
	return e.State() != StateIdle
}

func (e *Engine) IsPaused() bool {
	return e.State() == StatePaused
}

// PlaylistComplete reports whether the last item of the current playlist
// has finished.
func (e *Engine) PlaylistComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.complete
}

func (e *Engine) CurrentItem() (storage.Item, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.current()
}

func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.cursor
}

// Playlist returns a copy of the loaded playlist.
func (e *Engine) Playlist() []storage.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.snapshot()
}

// Voices lists the speaker's voices for the engine language.
func (e *Engine) Voices() []Voice {
	return filterVoices(e.speaker.Voices(), e.language)
}

// ApplySettings clamps and applies s. An out-of-range voice index keeps the
// current voice. Changes take effect on the next utterance.
func (e *Engine) ApplySettings(s Settings) {
	voices := e.Voices()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Rate = clampRate(s.Rate)
	e.settings.Pitch = clampPitch(s.Pitch)
	e.settings.AutoPlayNext = s.AutoPlayNext
	if s.VoiceIndex >= 0 && s.VoiceIndex < len(voices) {
		v := voices[s.VoiceIndex]
		e.voice = &v
	}
}

func (e *Engine) Settings() Settings {
	voices := e.Voices()

	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.settings
	s.VoiceIndex = indexOfVoice(voices, e.voice)
	return s
}

func (e *Engine) SetRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Rate = clampRate(rate)
}

func (e *Engine) SetPitch(pitch float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Pitch = clampPitch(pitch)
}

func (e *Engine) SetAutoPlayNext(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.AutoPlayNext = enabled
}

// SetVoice selects a voice by index into Voices. It reports false and keeps
// the current voice when the index is out of range.
func (e *Engine) SetVoice(index int) bool {
	voices := e.Voices()
	if index < 0 || index >= len(voices) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	v := voices[index]
	e.voice = &v
	return true
}

// Subscribe registers l and returns a function that removes it.
func (e *Engine) Subscribe(l Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.listeners = append(e.listeners, listenerEntry{id: id, listener: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, entry := range e.listeners {
				if entry.id == id {
					e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Close stops playback and releases the engine. Further Speak calls fail
// with ErrClosed.
func (e *Engine) Close() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	wasLive := e.live
	e.resetLocked()
	e.closed = true
	e.listeners = nil
	e.outbox = nil
	e.mu.Unlock()

	e.cancel()
	if wasLive {
		return e.speaker.Cancel()
	}
	return nil
}

func (e *Engine) enqueueEventLocked(ev Event) {
	ev.Index = e.list.cursor
	ev.Playlist = e.list.snapshot()
	e.outbox = append(e.outbox, func(l Listener) { l.OnEvent(ev) })
}

// flushFromCallback delivers queued events from speaker and clock
// goroutines. When an operation is in progress it will deliver them itself
// once it releases opMu.
func (e *Engine) flushFromCallback() {
	if !e.opMu.TryLock() {
		return
	}
	e.opMu.Unlock()
	e.flush()
}

// flush delivers queued events in order. Only one goroutine delivers at a
// time; events queued meanwhile, including by listeners, are picked up by
// the goroutine already delivering.
func (e *Engine) flush() {
	for {
		if !e.emitMu.TryLock() {
			return
		}
		e.drain()
		e.emitMu.Unlock()

		e.mu.Lock()
		pending := len(e.outbox) > 0
		e.mu.Unlock()
		if !pending {
			return
		}
	}
}

func (e *Engine) drain() {
	for {
		e.mu.Lock()
		batch := e.outbox
		e.outbox = nil
		listeners := make([]Listener, len(e.listeners))
		for i, entry := range e.listeners {
			listeners[i] = entry.listener
		}
		e.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, deliver := range batch {
			for _, l := range listeners {
				deliver(l)
			}
		}
	}
}

func copyVoice(v *Voice) *Voice {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
