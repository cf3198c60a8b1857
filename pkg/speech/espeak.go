package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"summarizer/pkg/narration"
)

const (
	DefaultBinary = "espeak-ng"

	baseWordsPerMinute = 175
	minWordsPerMinute  = 80
	maxWordsPerMinute  = 450
	maxPitch           = 99

	voicesTimeout = 10 * time.Second
)

var ErrNotSpeaking = errors.New("nothing is being spoken")

// ESpeak speaks through an espeak-ng child process, one process per
// utterance.
type ESpeak struct {
	binary string

	mu      sync.Mutex
	current *process

	voicesOnce sync.Once
	voices     []narration.Voice
}

type process struct {
	cmd      *exec.Cmd
	canceled bool
}

func NewESpeak(binary string) *ESpeak {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ESpeak{binary: binary}
}

// Available checks that the binary can be executed.
func (s *ESpeak) Available(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s is not available: %w", s.binary, err)
	}
	return nil
}

func args(u narration.Utterance) []string {
	wpm := int(baseWordsPerMinute * u.Rate)
	wpm = max(minWordsPerMinute, min(maxWordsPerMinute, wpm))
	pitch := max(0, min(maxPitch, int(u.Pitch*50)))

	a := []string{"-s", strconv.Itoa(wpm), "-p", strconv.Itoa(pitch)}
	if u.Voice != nil && u.Voice.Lang != "" {
		a = append(a, "-v", u.Voice.Lang)
	}
	return append(a, "--stdin")
}

// Speak starts a process for u. Signals are delivered from a goroutine that
// waits for the process: start once it is running, then end on a clean exit
// or error otherwise. A cancelled utterance ends with error code "canceled".
func (s *ESpeak) Speak(u narration.Utterance, on func(narration.Signal)) error {
	cmd := exec.Command(s.binary, args(u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.binary, err)
	}

	p := &process{cmd: cmd}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	go func() {
		on(narration.Signal{Type: narration.SignalStart})
		err := cmd.Wait()

		s.mu.Lock()
		canceled := p.canceled
		if s.current == p {
			s.current = nil
		}
		s.mu.Unlock()

		switch {
		case canceled:
			on(narration.Signal{Type: narration.SignalError, Code: "canceled"})
		case err != nil:
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				log.Printf("%s failed: %v: %s", s.binary, err, msg)
			}
			on(narration.Signal{Type: narration.SignalError, Code: err.Error()})
		default:
			on(narration.Signal{Type: narration.SignalEnd})
		}
	}()
	return nil
}

func (s *ESpeak) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNotSpeaking
	}
	return suspend(s.current.cmd.Process)
}

func (s *ESpeak) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNotSpeaking
	}
	return resume(s.current.cmd.Process)
}

// Cancel kills the running process, if any.
func (s *ESpeak) Cancel() error {
	s.mu.Lock()
	p := s.current
	s.current = nil
	if p != nil {
		p.canceled = true
	}
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop %s: %w", s.binary, err)
	}
	return nil
}

// Voices lists installed voices. The list is read once.
func (s *ESpeak) Voices() []narration.Voice {
	s.voicesOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), voicesTimeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, s.binary, "--voices").Output()
		if err != nil {
			log.Printf("Warning: failed to list %s voices: %v", s.binary, err)
			return
		}
		s.voices = parseVoices(out)
	})
	return append([]narration.Voice(nil), s.voices...)
}

// parseVoices reads the table printed by --voices:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US
func parseVoices(out []byte) []narration.Voice {
	var voices []narration.Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, narration.Voice{
			Name:  strings.ReplaceAll(fields[3], "_", " "),
			Lang:  fields[1],
			Local: true,
		})
	}
	return voices
}
