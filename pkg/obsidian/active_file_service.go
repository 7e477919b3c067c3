package obsidian

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ActiveFileService handles interaction with the currently active file in Obsidian.
type ActiveFileService struct {
	client *Client
}

// Get returns the content of the currently active file as a string.
func (s *ActiveFileService) Get(ctx context.Context) (string, error) {
	u := s.client.baseURL.ResolveReference(&url.URL{Path: "active/"})
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return "", err
	}

	var content string
	err = s.client.do(req, &content)
	return content, err
}

// GetNote returns the active file parsed as a Note struct (including frontmatter and stats).
// This sends the Accept: application/vnd.olrapi.note+json header.
func (s *ActiveFileService) GetNote(ctx context.Context) (*Note, error) {
	u := s.client.baseURL.ResolveReference(&url.URL{Path: "active/"})
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", noteJSONType)

	var note Note
	err = s.client.do(req, &note)
	return &note, err
}

// Update replaces the content of the currently active file.
func (s *ActiveFileService) Update(ctx context.Context, content string) error {
	u := s.client.baseURL.ResolveReference(&url.URL{Path: "active/"})
	req, err := http.NewRequestWithContext(ctx, "PUT", u.String(), strings.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", markdownType)

	return s.client.do(req, nil)
}
