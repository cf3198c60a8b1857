package content

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	spaceRunRegex  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRegex = regexp.MustCompile(`\n\s*\n`)
	extRegex       = regexp.MustCompile(`\.[^/.]+$`)
	separatorRegex = regexp.MustCompile(`[-_]`)
	wordStartRegex = regexp.MustCompile(`\b\w`)
)

// CleanText collapses whitespace: runs of spaces and tabs become one space,
// two or more newlines become exactly two, and both ends are trimmed.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = spaceRunRegex.ReplaceAllString(text, " ")
	text = blankLineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// TitleFromURL derives a readable title from the last path segment, or the
// host when the path is empty.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "Untitled Article"
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		if u.Hostname() == "" {
			return "Untitled Article"
		}
		return strings.TrimPrefix(u.Hostname(), "www.")
	}

	last := parts[len(parts)-1]
	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}
	last = extRegex.ReplaceAllString(last, "")
	last = separatorRegex.ReplaceAllString(last, " ")
	return wordStartRegex.ReplaceAllStringFunc(last, strings.ToUpper)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
