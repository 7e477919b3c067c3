package obsidian

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// SearchService handles searching in the vault.
type SearchService struct {
	client *Client
}

// JSONLogicResult represents a result from a JsonLogic search.
type JSONLogicResult struct {
	Filename string      `json:"filename"`
	Result   interface{} `json:"result"`
}

// JSONLogic performs a structured search using JsonLogic.
func (s *SearchService) JSONLogic(ctx context.Context, query interface{}) ([]JSONLogicResult, error) {
	u := s.client.baseURL.ResolveReference(&url.URL{Path: "search/"})

	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/vnd.olrapi.jsonlogic+json")

	var results []JSONLogicResult
	err = s.client.do(req, &results)
	return results, err
}

// FindByFrontmatter returns the files whose frontmatter key equals value.
func (s *SearchService) FindByFrontmatter(ctx context.Context, key, value string) ([]string, error) {
	query := map[string]interface{}{
		"==": []interface{}{
			map[string]interface{}{"var": "frontmatter." + key},
			value,
		},
	}
	results, err := s.JSONLogic(ctx, query)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, r := range results {
		if match, ok := r.Result.(bool); ok && !match {
			continue
		}
		files = append(files, r.Filename)
	}
	return files, nil
}
