package render

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/bttk/pinsync/internal/momentfmt"
	"github.com/bttk/pinsync/pkg/pinboard"
)

// MaxFilenameLength caps each value substituted into a pin note filename.
const MaxFilenameLength = 50

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9 ._-]`)
	whitespace          = regexp.MustCompile(`\s`)
)

// SanitizeFilename keeps letters, digits, spaces, dots, hyphens and
// underscores, trims surrounding spaces and truncates to MaxFilenameLength.
func SanitizeFilename(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(s, ""))
	if len(s) > MaxFilenameLength {
		s = strings.TrimSpace(s[:MaxFilenameLength])
	}
	return s
}

// PinPath returns the vault path of the note for p. format is a moment-style
// date layout in which {description}, {href}, {extended}, {shared},
// {toread} and {tags} are replaced by sanitized post fields.
func PinPath(p pinboard.Post, basePath, format string) string {
	name := momentfmt.Format(p.Time.Local(), format)
	fields := map[string]string{
		"{description}": p.Description,
		"{href}":        p.Href,
		"{extended}":    p.Extended,
		"{shared}":      strconv.FormatBool(p.Shared),
		"{toread}":      strconv.FormatBool(p.ToRead),
		"{tags}":        strings.Join(p.TagNames(), ","),
	}
	for tok, value := range fields {
		name = strings.ReplaceAll(name, tok, SanitizeFilename(value))
	}
	return strings.TrimPrefix(path.Clean(path.Join(basePath, name+".md")), "/")
}
