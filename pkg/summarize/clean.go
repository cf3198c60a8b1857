package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	boldPattern    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern  = regexp.MustCompile(`\*(.*?)\*`)
	headerPattern  = regexp.MustCompile(`#{1,6}\s`)
	newlinePattern = regexp.MustCompile(`\n{3,}`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// CleanSummaryText strips markdown emphasis and headers and flattens
// whitespace so the text reads cleanly aloud.
func CleanSummaryText(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = headerPattern.ReplaceAllString(text, "")
	text = newlinePattern.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var invalidVideoIndicators = []string{
	"cannot access",
	"unable to access",
	"cannot view",
	"unable to view",
	"not available",
	"video is not accessible",
	"cannot retrieve",
	"unable to retrieve",
	"different video",
	"wrong video",
	"error accessing",
	"i cannot",
	"i am unable",
	"as an ai",
}

// ValidVideoSummary rejects answers that look like the model could not see
// the video.
func ValidVideoSummary(summary string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(summary)) < 100 {
		return false
	}
	lower := strings.ToLower(summary)
	for _, indicator := range invalidVideoIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	return true
}
