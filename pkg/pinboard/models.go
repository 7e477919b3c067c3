package pinboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Tag is a bookmark tag. Count is only populated by the tags endpoint.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// Post is a single bookmark.
type Post struct {
	Href        string    `json:"href"`
	Description string    `json:"description"`
	Extended    string    `json:"extended"`
	Meta        string    `json:"meta"`
	Hash        string    `json:"hash"`
	Time        time.Time `json:"time"`
	Shared      bool      `json:"shared"`
	ToRead      bool      `json:"toread"`
	Tags        []Tag     `json:"tags"`
}

// TagNames returns the names of the post's tags in order.
func (p Post) TagNames() []string {
	names := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		names[i] = t.Name
	}
	return names
}

func (p Post) String() string {
	var b strings.Builder
	b.WriteString("----------------\n")
	if p.Description != "" {
		b.WriteString(p.Description + "\n")
	} else {
		b.WriteString("UNTITLED BOOKMARK\n")
	}
	fmt.Fprintf(&b, "<%s>\n", p.Href)
	if p.Extended != "" {
		b.WriteString(p.Extended + "\n")
	}
	fmt.Fprintf(&b, "bookmarked: %s\n", formatTime(p.Time))
	fmt.Fprintf(&b, "public: %t, toread: %t\n", p.Shared, p.ToRead)
	fmt.Fprintf(&b, "tags: %s\n", strings.Join(p.TagNames(), " "))
	b.WriteString("----------------\n")
	return b.String()
}

// PostCollection is the result of a posts query.
type PostCollection struct {
	Date  time.Time `json:"date"`
	User  string    `json:"user"`
	Posts []Post    `json:"posts"`
}

func (c PostCollection) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PostCollection for user %s on %s\n", c.User, formatTime(c.Date))
	b.WriteString("================\n\n")
	for _, p := range c.Posts {
		b.WriteString(p.String() + "\n")
	}
	b.WriteString("================\n")
	return b.String()
}

// Note is a Pinboard note. Text is empty when the note came from a listing.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreateDate time.Time `json:"created_at"`
	UpdateDate time.Time `json:"updated_at"`
	Hash       string    `json:"hash"`
	Text       string    `json:"text,omitempty"`
}

// NotePost joins a note with the bookmark Pinboard keeps for its URL.
type NotePost struct {
	Note Note `json:"note"`
	Post Post `json:"post"`
}

func (np NotePost) String() string {
	var b strings.Builder
	b.WriteString("----------------\n")
	fmt.Fprintf(&b, "Note: %s (id %s)\n", np.Note.Title, np.Note.ID)
	b.WriteString(np.Note.Text + "\n")
	fmt.Fprintf(&b, "added: %s updated: %s\n", formatTime(np.Note.CreateDate), formatTime(np.Note.UpdateDate))
	fmt.Fprintf(&b, "public: %t\n", np.Post.Shared)
	fmt.Fprintf(&b, "tags: %s\n", strings.Join(np.Post.TagNames(), " "))
	b.WriteString("----------------\n")
	return b.String()
}

// Wire shapes of the API responses.

type postJSON struct {
	Href        string          `json:"href"`
	Description string          `json:"description"`
	Extended    string          `json:"extended"`
	Meta        string          `json:"meta"`
	Hash        string          `json:"hash"`
	Time        string          `json:"time"`
	Shared      json.RawMessage `json:"shared"`
	ToRead      json.RawMessage `json:"toread"`
	Tags        string          `json:"tags"`
}

type collectionJSON struct {
	Date  string     `json:"date"`
	User  string     `json:"user"`
	Posts []postJSON `json:"posts"`
}

type noteJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Hash      string `json:"hash"`
	Text      string `json:"text"`
}

// ParseFlag normalizes the yes/no, true/false and 1/0 flags the API uses.
func ParseFlag(raw json.RawMessage) (bool, error) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	switch s {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidFlag, s)
}

func postFromResponse(raw postJSON) (Post, error) {
	shared, err := ParseFlag(raw.Shared)
	if err != nil {
		return Post{}, fmt.Errorf("post %s: shared: %w", raw.Href, err)
	}
	toread, err := ParseFlag(raw.ToRead)
	if err != nil {
		return Post{}, fmt.Errorf("post %s: toread: %w", raw.Href, err)
	}
	t, err := parseTime(raw.Time)
	if err != nil {
		return Post{}, fmt.Errorf("post %s: time: %w", raw.Href, err)
	}
	p := Post{
		Href:        raw.Href,
		Description: raw.Description,
		Extended:    raw.Extended,
		Meta:        raw.Meta,
		Hash:        raw.Hash,
		Time:        t,
		Shared:      shared,
		ToRead:      toread,
		Tags:        []Tag{},
	}
	for _, name := range strings.Fields(raw.Tags) {
		p.Tags = append(p.Tags, Tag{Name: name})
	}
	return p, nil
}

func collectionFromResponse(raw collectionJSON) (*PostCollection, error) {
	date, err := parseTime(raw.Date)
	if err != nil {
		return nil, fmt.Errorf("collection date: %w", err)
	}
	c := &PostCollection{Date: date, User: raw.User, Posts: make([]Post, 0, len(raw.Posts))}
	for _, rp := range raw.Posts {
		p, err := postFromResponse(rp)
		if err != nil {
			return nil, err
		}
		c.Posts = append(c.Posts, p)
	}
	return c, nil
}

func noteFromResponse(raw noteJSON) (Note, error) {
	created, err := parseTime(raw.CreatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("note %s: created_at: %w", raw.ID, err)
	}
	updated, err := parseTime(raw.UpdatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("note %s: updated_at: %w", raw.ID, err)
	}
	return Note{
		ID:         raw.ID,
		Title:      raw.Title,
		CreateDate: created,
		UpdateDate: updated,
		Hash:       raw.Hash,
		Text:       raw.Text,
	}, nil
}

// tagsFromResponse decodes the name→count object of tags/get. Counts may be
// numbers or numeric strings.
func tagsFromResponse(raw map[string]json.RawMessage) ([]Tag, error) {
	tags := make([]Tag, 0, len(raw))
	for name, rc := range raw {
		s := string(rc)
		if unq, err := strconv.Unquote(s); err == nil {
			s = unq
		}
		count, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("tag %s: count %s: %w", name, rc, err)
		}
		tags = append(tags, Tag{Name: name, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
