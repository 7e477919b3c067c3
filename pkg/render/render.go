// Package render turns Pinboard posts into markdown for daily note sections
// and metadata blocks for per-pin notes.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bttk/pinsync/pkg/pinboard"
	"gopkg.in/yaml.v3"
)

// PropertiesDelimiter opens and closes a metadata block.
const PropertiesDelimiter = "---"

// Options control rendering. They mirror the corresponding config fields.
type Options struct {
	SectionHeading   string
	TagPrefix        string
	NewlineSeparator bool
	// PinTag is prepended to the tags of every per-pin note.
	PinTag string
}

// Renderer formats posts.
type Renderer struct {
	opts Options
}

// New returns a Renderer for opts.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

var tagSeparators = regexp.MustCompile(`[\s:]+`)

// RenderTags returns the post's tags as '#prefix/name' strings. Empty names
// are dropped; whitespace and colons collapse to '-'. With omitMarker the
// leading '#' is left out, as metadata blocks expect.
func (r *Renderer) RenderTags(p pinboard.Post, omitMarker bool) []string {
	marker := "#"
	if omitMarker {
		marker = ""
	}
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		name = strings.ToLower(tagSeparators.ReplaceAllString(name, "-"))
		tags = append(tags, marker+r.opts.TagPrefix+name)
	}
	return tags
}

// RenderPin renders a post as a single markdown list item.
func (r *Renderer) RenderPin(p pinboard.Post) string {
	sep := " "
	if r.opts.NewlineSeparator {
		sep = "\n  "
	}
	tags := strings.Join(r.RenderTags(p, false), " ")
	line := fmt.Sprintf("- [%s](%s)%s%s%s%s", p.Description, p.Href, sep, p.Extended, sep, tags)
	return strings.TrimRight(line, " \t\n")
}

// Render renders the section heading followed by one item per post.
func (r *Renderer) Render(posts []pinboard.Post) string {
	lines := make([]string, 0, len(posts)+1)
	lines = append(lines, r.opts.SectionHeading)
	for _, p := range posts {
		lines = append(lines, r.RenderPin(p))
	}
	return strings.Join(lines, "\n")
}

type pinProperties struct {
	Href        string `yaml:"href"`
	Tags        string `yaml:"tags"`
	Description string `yaml:"description"`
	Extended    string `yaml:"extended"`
	Time        string `yaml:"time"`
	ToRead      bool   `yaml:"toread"`
	Shared      bool   `yaml:"shared"`
}

// RenderPinProperties renders the metadata block of a per-pin note,
// delimiters included.
func (r *Renderer) RenderPinProperties(p pinboard.Post) (string, error) {
	tags := r.RenderTags(p, true)
	if r.opts.PinTag != "" {
		tags = append([]string{r.opts.PinTag}, tags...)
	}
	out, err := yaml.Marshal(pinProperties{
		Href:        p.Href,
		Tags:        strings.Join(tags, ", "),
		Description: p.Description,
		Extended:    p.Extended,
		Time:        p.Time.UTC().Format(time.RFC3339),
		ToRead:      p.ToRead,
		Shared:      p.Shared,
	})
	if err != nil {
		return "", fmt.Errorf("encode properties for %s: %w", p.Href, err)
	}
	return PropertiesDelimiter + "\n" + string(out) + PropertiesDelimiter, nil
}
