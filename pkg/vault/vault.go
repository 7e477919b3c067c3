// Package vault abstracts the note storage pinsync writes to: a store of
// markdown documents addressed by vault-relative path, an optional live
// editor buffer for documents open in an editor, and daily note lookup.
package vault

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("vault: document not found")

// Position addresses a location in a document by zero-based line and
// byte offset within that line.
type Position struct {
	Line int
	Ch   int
}

// Store reads and writes whole documents.
type Store interface {
	Read(ctx context.Context, path string) (string, error)
	// Write replaces the document, creating it and its folders if needed.
	Write(ctx context.Context, path, text string) error
	// Touch creates an empty document at path unless one exists.
	Touch(ctx context.Context, path string) error
	// LiveBuffer returns the editor buffer of path, or nil if the document
	// is not open for editing.
	LiveBuffer(ctx context.Context, path string) (Buffer, error)
}

// Buffer is a document open in an editor. Edits through a Buffer keep the
// editor's undo history and cursor.
type Buffer interface {
	ReplaceRange(ctx context.Context, text string, from, to Position) error
	InsertAt(ctx context.Context, text string, pos Position) error
}

// DailyNotes locates the daily note of a calendar day.
type DailyNotes interface {
	// Resolve returns the path of the day's note if it exists.
	Resolve(ctx context.Context, day time.Time) (path string, ok bool, err error)
	// Create creates the day's note and returns its path.
	Create(ctx context.Context, day time.Time) (string, error)
}

// PropertyFinder is implemented by stores that can look documents up by a
// metadata block value.
type PropertyFinder interface {
	FindByProperty(ctx context.Context, key, value string) (path string, ok bool, err error)
}

// ResolveDaily returns the day's note, creating it when missing.
func ResolveDaily(ctx context.Context, d DailyNotes, day time.Time) (string, error) {
	path, ok, err := d.Resolve(ctx, day)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}
	return d.Create(ctx, day)
}

// Offset converts pos to a byte offset into text. Positions past the end of
// a line or of the text are clamped.
func Offset(text string, pos Position) int {
	off := 0
	for line := 0; line < pos.Line; line++ {
		nl := indexNewline(text[off:])
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}
	end := indexNewline(text[off:])
	if end < 0 {
		end = len(text) - off
	}
	if pos.Ch < end {
		end = pos.Ch
	}
	return off + end
}

// Splice replaces the range [from, to) of text with repl.
func Splice(text, repl string, from, to Position) string {
	start, end := Offset(text, from), Offset(text, to)
	if end < start {
		start, end = end, start
	}
	return text[:start] + repl + text[end:]
}

func indexNewline(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}
