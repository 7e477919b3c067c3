// Package pinboard is a client for the Pinboard v1 API.
package pinboard

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultHost serves the v1 API.
	DefaultHost = "api.pinboard.in"
	// DefaultNotesHost serves public note pages.
	DefaultNotesHost = "notes.pinboard.in"

	authTokenParam = "auth_token"
	tokenSeparator = ":"
)

// APIToken is a Pinboard API token of the form user:secret.
type APIToken struct {
	User   string
	Secret string
}

// ParseAPIToken parses a user:secret token.
func ParseAPIToken(s string) (APIToken, error) {
	parts := strings.Split(s, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return APIToken{}, ErrInvalidToken
	}
	return APIToken{User: parts[0], Secret: parts[1]}, nil
}

func (t APIToken) String() string {
	return t.User + tokenSeparator + t.Secret
}

// Client is the main entry point for the Pinboard API client.
type Client struct {
	Token APIToken

	baseReq  Request
	notesReq Request
	exec     Executor

	// Services
	Posts     *PostsService
	Tags      *TagsService
	Notes     *NotesService
	NotePosts *NotePostsService
}

// Option is a functional option for configuring the Client.
type Option func(*clientOptions) error

type clientOptions struct {
	base  Request
	notes Request
	http  *http.Client
	exec  Executor
}

// WithBaseURL points the client at a different API root, e.g. a test server.
func WithBaseURL(raw string) Option {
	return func(o *clientOptions) error {
		r, err := ParseRequestURL(raw)
		if err != nil {
			return err
		}
		o.base = r
		return nil
	}
}

// WithNotesURL changes the host used to build public note URLs.
func WithNotesURL(raw string) Option {
	return func(o *clientOptions) error {
		r, err := ParseRequestURL(raw)
		if err != nil {
			return err
		}
		o.notes = r
		return nil
	}
}

// WithHTTPClient allows providing a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) error {
		o.http = c
		return nil
	}
}

// WithExecutor replaces the HTTP executor entirely.
func WithExecutor(e Executor) Option {
	return func(o *clientOptions) error {
		o.exec = e
		return nil
	}
}

// NewClient creates a new Pinboard client authenticated by token.
func NewClient(token string, opts ...Option) (*Client, error) {
	tok, err := ParseAPIToken(token)
	if err != nil {
		return nil, err
	}

	o := clientOptions{
		base:  NewRequest(DefaultHost, "v1"),
		notes: NewRequest(DefaultNotesHost),
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.exec == nil {
		o.exec = NewHTTPExecutor(o.http)
	}

	base := o.base.Clone(nil,
		QueryParam{Name: authTokenParam, Value: tok.String(), NoEncodeValue: true},
		QueryParam{Name: "format", Value: "json"},
	)
	base.ParseJSON = true

	c := &Client{
		Token:    tok,
		baseReq:  base,
		notesReq: o.notes.Clone([]string{"u:" + tok.User}),
		exec:     o.exec,
	}
	c.initializeServices()

	log.Debug().Str("user", tok.User).Msg("pinboard client set up")
	return c, nil
}

func (c *Client) initializeServices() {
	c.Posts = newPostsService(c.baseReq, c.exec)
	c.Tags = newTagsService(c.baseReq, c.exec)
	c.Notes = newNotesService(c.baseReq, c.exec)
	c.NotePosts = &NotePostsService{notes: c.Notes, posts: c.Posts, notesReq: c.notesReq}
}

// API is the subset of the client used by the sync and MCP layers.
// This allows for mocking in tests.
type API interface {
	RecentPosts(ctx context.Context, tags []string, count int) (*PostCollection, error)
	GetPosts(ctx context.Context, opts GetOptions) (*PostCollection, error)
	ListTags(ctx context.Context) ([]Tag, error)
	RenameTag(ctx context.Context, oldName, newName string) (interface{}, error)
	ListNotePosts(ctx context.Context) ([]NotePost, error)
	GetNotePost(ctx context.Context, id string) (*NotePost, error)
}

var _ API = (*Client)(nil)

// RecentPosts implements API.
func (c *Client) RecentPosts(ctx context.Context, tags []string, count int) (*PostCollection, error) {
	return c.Posts.Recent(ctx, tags, count)
}

// GetPosts implements API.
func (c *Client) GetPosts(ctx context.Context, opts GetOptions) (*PostCollection, error) {
	return c.Posts.Get(ctx, opts)
}

// ListTags implements API.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	return c.Tags.Get(ctx)
}

// RenameTag implements API.
func (c *Client) RenameTag(ctx context.Context, oldName, newName string) (interface{}, error) {
	return c.Tags.Rename(ctx, oldName, newName)
}

// ListNotePosts implements API.
func (c *Client) ListNotePosts(ctx context.Context) ([]NotePost, error) {
	return c.NotePosts.List(ctx)
}

// GetNotePost implements API.
func (c *Client) GetNotePost(ctx context.Context, id string) (*NotePost, error) {
	return c.NotePosts.Get(ctx, id)
}
