package narration

// Voice is one synthesis voice offered by a Speaker.
type Voice struct {
	Name  string `json:"name"`
	Lang  string `json:"lang"`
	Local bool   `json:"local"`
}

// Utterance is a single request to speak text.
type Utterance struct {
	Text  string
	Rate  float64
	Pitch float64
	Voice *Voice
}

type SignalType string

const (
	SignalStart  SignalType = "start"
	SignalEnd    SignalType = "end"
	SignalError  SignalType = "error"
	SignalPause  SignalType = "pause"
	SignalResume SignalType = "resume"
)

// Signal is a lifecycle notification for one utterance. Code is set for
// SignalError.
type Signal struct {
	Type SignalType
	Code string
}

// Speaker is the speech synthesis capability the engine drives.
//
// Speak begins an utterance and reports its lifecycle through on. Signals for
// one utterance must be delivered in order and on must not be called after
// the utterance's end or error signal. Implementations should deliver
// signals from their own goroutine rather than from inside Speak.
type Speaker interface {
	Speak(u Utterance, on func(Signal)) error
	Pause() error
	Resume() error
	Cancel() error
	Voices() []Voice
}
