package obsidian

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PeriodicService handles interaction with periodic notes (daily, weekly, etc.).
type PeriodicService struct {
	client *Client
}

func (s *PeriodicService) dateURL(period string, date time.Time) string {
	p := fmt.Sprintf("periodic/%s/%d/%d/%d/", period, date.Year(), int(date.Month()), date.Day())
	return s.client.baseURL.ResolveReference(&url.URL{Path: p}).String()
}

// GetNote returns the periodic note for the given date parsed as a Note struct.
func (s *PeriodicService) GetNote(ctx context.Context, period string, date time.Time) (*Note, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.dateURL(period, date), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", noteJSONType)

	var note Note
	if err := s.client.do(req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Put creates or replaces the periodic note for the given date.
func (s *PeriodicService) Put(ctx context.Context, period string, date time.Time, content string) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", s.dateURL(period, date), strings.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", markdownType)

	return s.client.do(req, nil)
}
