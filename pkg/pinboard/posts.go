package pinboard

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	// MaxTags is the number of tags a posts query may filter by.
	MaxTags = 3
	// MaxRecentCount is the largest count accepted by posts/recent.
	MaxRecentCount = 100
)

// PostsService handles the posts/* endpoints.
type PostsService struct {
	req  Request
	exec Executor
}

func newPostsService(base Request, exec Executor) *PostsService {
	return &PostsService{req: base.Clone([]string{"posts"}), exec: exec}
}

// GetOptions filters a posts/get query.
type GetOptions struct {
	Tags []string
	// Date restricts results to bookmarks saved on that day.
	Date time.Time
	URL  string
	Meta bool

	// urlLiteral sends URL without percent-encoding.
	urlLiteral bool
}

// Update returns the time of the most recent change to the user's bookmarks.
func (s *PostsService) Update(ctx context.Context) (time.Time, error) {
	var resp struct {
		UpdateTime string `json:"update_time"`
	}
	if err := s.exec.Execute(ctx, s.req.Clone([]string{"update"}), &resp); err != nil {
		return time.Time{}, err
	}
	return parseTime(resp.UpdateTime)
}

// Get returns the posts matching opts.
func (s *PostsService) Get(ctx context.Context, opts GetOptions) (*PostCollection, error) {
	if len(opts.Tags) > MaxTags {
		return nil, ErrTooManyTags
	}
	params := tagParams(opts.Tags)
	if !opts.Date.IsZero() {
		params = append(params, QueryParam{Name: "dt", Value: formatTime(opts.Date)})
	}
	if opts.URL != "" {
		params = append(params, QueryParam{Name: "url", Value: opts.URL, NoEncodeValue: opts.urlLiteral})
	}
	params = append(params, QueryParam{Name: "meta", Value: yesNo(opts.Meta)})

	return s.collection(ctx, s.req.Clone([]string{"get"}, params...))
}

// Recent returns the user's most recent posts. A zero count leaves the
// service default in place.
func (s *PostsService) Recent(ctx context.Context, tags []string, count int) (*PostCollection, error) {
	if len(tags) > MaxTags {
		return nil, ErrTooManyTags
	}
	if count < 0 || count > MaxRecentCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	params := tagParams(tags)
	if count > 0 {
		params = append(params, QueryParam{Name: "count", Value: strconv.Itoa(count)})
	}
	return s.collection(ctx, s.req.Clone([]string{"recent"}, params...))
}

func (s *PostsService) collection(ctx context.Context, req Request) (*PostCollection, error) {
	var raw collectionJSON
	if err := s.exec.Execute(ctx, req, &raw); err != nil {
		return nil, err
	}
	return collectionFromResponse(raw)
}

func tagParams(tags []string) []QueryParam {
	params := make([]QueryParam, 0, len(tags)+2)
	for _, t := range tags {
		params = append(params, QueryParam{Name: "tag", Value: t})
	}
	return params
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
