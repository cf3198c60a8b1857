package content

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for empty or unparseable input.
	ErrInvalidURL = errors.New("please enter a valid URL")
	// ErrUnresolvableVideo means no video ID pattern matched the URL.
	ErrUnresolvableVideo = errors.New("invalid YouTube URL - could not extract video ID")
	// ErrExtractionTooShort makes the orchestrator move on to the next strategy.
	ErrExtractionTooShort = errors.New("extracted content too short")
	// ErrManualContentTooShort rejects pasted text under the minimum length.
	ErrManualContentTooShort = errors.New("please provide at least 100 characters of content")
	// ErrEmptyProxyContent is returned when a JSON relay answers without page contents.
	ErrEmptyProxyContent = errors.New("no content returned from proxy")
)

// TransportError covers network failures and non-2xx responses from an
// origin or relay.
type TransportError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	if e.Status != "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether a strategy failure should advance the chain
// to the next strategy.
func IsRecoverable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) || errors.Is(err, ErrExtractionTooShort) || errors.Is(err, ErrEmptyProxyContent)
}
