package pinboard

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every argument error detected before a
	// request is sent.
	ErrValidation = errors.New("pinboard: invalid argument")
	// ErrInvalidToken is returned when an API token is not of the form user:secret.
	ErrInvalidToken = fmt.Errorf("%w: API token must be of the form user:secret", ErrValidation)
	// ErrTooManyTags is returned when more than MaxTags tags filter a posts request.
	ErrTooManyTags = fmt.Errorf("%w: only %d tags are supported for this request", ErrValidation, MaxTags)
	// ErrInvalidCount is returned when a recent posts count is outside 0-100.
	ErrInvalidCount = fmt.Errorf("%w: count must be between 0 and %d", ErrValidation, MaxRecentCount)
	// ErrEmptyNoteID is returned when a note is requested by an empty id.
	ErrEmptyNoteID = fmt.Errorf("%w: note id must not be empty", ErrValidation)
	// ErrInvalidFlag is returned when a boolean field of a response cannot be parsed.
	ErrInvalidFlag = errors.New("pinboard: unable to parse flag")
)

// TransportError is returned when a request fails at the socket level or the
// server answers with a status outside [200, 300).
type TransportError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("ERROR %d when attempting to %s %s\n%s", e.StatusCode, e.Method, e.URL, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response expected to be JSON does not parse.
type DecodeError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("JSON parse error: %v when receiving code %d from %s, body:\n%s", e.Err, e.StatusCode, e.URL, e.Body)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// JoinError is returned when a note does not resolve to exactly one bookmark.
type JoinError struct {
	NoteID string
	URL    string
	Found  int
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("expected to find bookmark for note %s at URL %s, but found %d instead", e.NoteID, e.URL, e.Found)
}
