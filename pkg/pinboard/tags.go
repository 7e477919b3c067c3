package pinboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// TagsService handles the tags/* endpoints.
type TagsService struct {
	req  Request
	exec Executor
}

func newTagsService(base Request, exec Executor) *TagsService {
	return &TagsService{req: base.Clone([]string{"tags"}), exec: exec}
}

// Get returns all of the user's tags with their counts, sorted by name.
func (s *TagsService) Get(ctx context.Context) ([]Tag, error) {
	var raw map[string]json.RawMessage
	if err := s.exec.Execute(ctx, s.req.Clone([]string{"get"}), &raw); err != nil {
		return nil, err
	}
	tags, err := tagsFromResponse(raw)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("count", len(tags)).Msg("got tags")
	return tags, nil
}

// Rename renames a tag and returns the decoded response as is.
func (s *TagsService) Rename(ctx context.Context, oldName, newName string) (interface{}, error) {
	if oldName == "" || newName == "" {
		return nil, fmt.Errorf("%w: tag names must not be empty", ErrValidation)
	}
	req := s.req.Clone([]string{"rename"},
		QueryParam{Name: "old", Value: oldName},
		QueryParam{Name: "new", Value: newName},
	)
	var result interface{}
	if err := s.exec.Execute(ctx, req, &result); err != nil {
		return nil, err
	}
	log.Debug().Interface("result", result).Msg("renamed tag")
	return result, nil
}
