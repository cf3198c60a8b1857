package narration

import (
	"math"
	"strings"
	"time"
)

const (
	MinRate        = 0.1
	MaxRate        = 10.0
	MinPitch       = 0.0
	MaxPitch       = 2.0
	WordsPerMinute = 150.0
)

// Settings are the user-adjustable narration parameters.
type Settings struct {
	Rate         float64 `json:"rate"`
	Pitch        float64 `json:"pitch"`
	VoiceIndex   int     `json:"voice_index"`
	AutoPlayNext bool    `json:"auto_play_next"`
}

func DefaultSettings() Settings {
	return Settings{
		Rate:         1.0,
		Pitch:        1.0,
		VoiceIndex:   0,
		AutoPlayNext: true,
	}
}

func clampRate(rate float64) float64 {
	return math.Max(MinRate, math.Min(MaxRate, rate))
}

func clampPitch(pitch float64) float64 {
	return math.Max(MinPitch, math.Min(MaxPitch, pitch))
}

// EstimateDuration is the expected narration time for text at rate, using a
// words-per-minute model. Empty text yields zero.
func EstimateDuration(text string, rate float64) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 || rate <= 0 {
		return 0
	}
	minutes := float64(words) / (WordsPerMinute * rate)
	return time.Duration(minutes * float64(time.Minute))
}

func filterVoices(voices []Voice, lang string) []Voice {
	lang = strings.ToLower(lang)
	var out []Voice
	for _, v := range voices {
		if lang == "" || strings.HasPrefix(strings.ToLower(v.Lang), lang) {
			out = append(out, v)
		}
	}
	return out
}

// defaultVoice prefers the first local voice, then the first voice.
func defaultVoice(voices []Voice) *Voice {
	for i := range voices {
		if voices[i].Local {
			v := voices[i]
			return &v
		}
	}
	if len(voices) > 0 {
		v := voices[0]
		return &v
	}
	return nil
}

func indexOfVoice(voices []Voice, v *Voice) int {
	if v == nil {
		return -1
	}
	for i := range voices {
		if voices[i] == *v {
			return i
		}
	}
	return -1
}
