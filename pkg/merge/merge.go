// Package merge rewrites the parts of a markdown document that pinsync owns:
// a heading-delimited section, or the metadata block at the top of the file.
// Everything else in the document is left byte-for-byte intact.
package merge

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bttk/pinsync/pkg/render"
	"github.com/bttk/pinsync/pkg/vault"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+\S`)

// HeadingLevel returns the number of leading '#' characters of a markdown
// heading line, or 0 if line is not a heading.
func HeadingLevel(line string) int {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}

// Edit is a section replacement computed against a document. It can be
// applied either to the document's lines or to a live editor buffer.
type Edit struct {
	// Found reports whether the heading already exists. When false the
	// section is appended to the end of the document.
	Found bool
	// Start and End delimit the replaced lines, [Start, End).
	Start, End int
	// Body is the new section text, heading included.
	Body string

	lines []string
}

// PlanSection locates the section introduced by heading in text. The
// section runs until the next heading of the same or a shallower level.
// If heading occurs more than once before the section ends, the last
// occurrence wins.
func PlanSection(text, heading, body string) Edit {
	level := HeadingLevel(heading)
	lines := strings.Split(text, "\n")
	e := Edit{Start: -1, End: len(lines), Body: body, lines: lines}
	for i, line := range lines {
		if strings.TrimSpace(line) == heading {
			e.Start = i
			continue
		}
		if e.Start < 0 || level == 0 {
			continue
		}
		if l := HeadingLevel(line); l > 0 && l <= level {
			e.End = i
			break
		}
	}
	e.Found = e.Start >= 0
	return e
}

// Apply returns the document text with the edit applied.
func (e Edit) Apply() string {
	if !e.Found {
		return strings.Join(e.lines, "\n") + "\n\n" + e.Body
	}
	out := make([]string, 0, len(e.lines)+1)
	out = append(out, e.lines[:e.Start]...)
	out = append(out, e.Body)
	out = append(out, e.lines[e.End:]...)
	return strings.Join(out, "\n")
}

// ApplyBuffer performs the edit through an editor buffer. The buffer ends up
// with the same text Apply would produce.
func (e Edit) ApplyBuffer(ctx context.Context, buf vault.Buffer) error {
	last := len(e.lines) - 1
	eof := vault.Position{Line: last, Ch: len(e.lines[last])}
	switch {
	case !e.Found:
		return buf.InsertAt(ctx, "\n\n"+e.Body, eof)
	case e.End < len(e.lines):
		return buf.ReplaceRange(ctx, e.Body+"\n", vault.Position{Line: e.Start}, vault.Position{Line: e.End})
	default:
		return buf.ReplaceRange(ctx, e.Body, vault.Position{Line: e.Start}, eof)
	}
}

// UpdateSection replaces the section under heading in the document at path
// with body, or appends body when the heading is missing. If the document is
// open in an editor the change goes through the editor buffer.
func UpdateSection(ctx context.Context, store vault.Store, path, heading, body string) error {
	text, err := store.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	e := PlanSection(text, heading, body)
	logger := log.Ctx(ctx).With().Str("path", path).Bool("found", e.Found).Logger()

	buf, err := store.LiveBuffer(ctx, path)
	if err != nil {
		return fmt.Errorf("open buffer %s: %w", path, err)
	}
	if buf != nil {
		logger.Debug().Int("start", e.Start).Int("end", e.End).Msg("Updating section in editor")
		if err := e.ApplyBuffer(ctx, buf); err != nil {
			return fmt.Errorf("edit %s: %w", path, err)
		}
		return nil
	}

	logger.Debug().Int("start", e.Start).Int("end", e.End).Msg("Updating section")
	if err := store.Write(ctx, path, e.Apply()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReplaceProperties puts props at the top of text, replacing the existing
// metadata block. A block only counts when the first line is a delimiter
// and a second delimiter line follows.
func ReplaceProperties(text, props string) string {
	lines := strings.Split(text, "\n")
	var markers []int
	for i, line := range lines {
		if line == render.PropertiesDelimiter {
			markers = append(markers, i)
		}
	}
	if len(markers) >= 2 && markers[0] == 0 {
		lines = lines[markers[1]+1:]
	}
	return props + "\n" + strings.Join(lines, "\n")
}

// UpdateProperties rewrites the metadata block of the document at path.
// Editor buffers are not consulted.
func UpdateProperties(ctx context.Context, store vault.Store, path, props string) error {
	text, err := store.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	log.Ctx(ctx).Debug().Str("path", path).Msg("Updating properties")
	if err := store.Write(ctx, path, ReplaceProperties(text, props)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
