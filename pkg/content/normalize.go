package content

import (
	"net/url"
	"regexp"
	"strings"
)

var schemeRegex = regexp.MustCompile(`(?i)^https?://`)

var videoHosts = []string{"youtube.com", "youtu.be"}

// NormalizeURL turns user input into an absolute http(s) URL. Input without
// a scheme gets https:// prepended. No network access happens here.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	if !schemeRegex.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", ErrInvalidURL
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// Classify reports whether a normalized URL points at a video host.
func Classify(rawURL string) ContentType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return TypeArticle
	}
	host := strings.ToLower(u.Hostname())
	for _, marker := range videoHosts {
		if strings.Contains(host, marker) {
			return TypeVideo
		}
	}
	return TypeArticle
}

// SourceName is the host without a leading "www.", used as a display source.
func SourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
