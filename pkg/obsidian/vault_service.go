package obsidian

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// VaultService handles interaction with files in the vault.
type VaultService struct {
	client *Client
}

// Get returns the content of a file in the vault.
func (s *VaultService) Get(ctx context.Context, path string) (string, error) {
	u := s.client.baseURL.ResolveReference(&url.URL{Path: "vault/" + path})
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return "", err
	}

	var content string
	err = s.client.do(req, &content)
	return content, err
}

// Create creates a new file or updates an existing one with the given content.
// Missing parent folders are created by Obsidian.
func (s *VaultService) Create(ctx context.Context, path, content string) error {
	u := s.client.baseURL.ResolveReference(&url.URL{Path: "vault/" + path})
	req, err := http.NewRequestWithContext(ctx, "PUT", u.String(), strings.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", markdownType)

	return s.client.do(req, nil)
}
