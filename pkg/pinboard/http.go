package pinboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// Executor performs a single Request. When the request asks for JSON the
// body is decoded into v, otherwise v must be a *string or nil.
type Executor interface {
	Execute(ctx context.Context, req Request, v interface{}) error
}

// HTTPExecutor runs requests over net/http. It issues exactly one request per
// call and never retries.
type HTTPExecutor struct {
	http *http.Client
}

// NewHTTPExecutor returns an executor using c, or http.DefaultClient if c is nil.
func NewHTTPExecutor(c *http.Client) *HTTPExecutor {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPExecutor{http: c}
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, r Request, v interface{}) error {
	redacted := r.RedactedURL()
	log.Debug().Str("method", r.Method).Str("url", redacted).Msg("pinboard request")

	if r.Protocol != "http" && r.Protocol != "https" {
		return fmt.Errorf("unknown protocol %q", r.Protocol)
	}

	var body io.Reader
	if r.Body != "" {
		body = strings.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.FullURL(), body)
	if err != nil {
		return &TransportError{Method: r.Method, URL: redacted, Err: err}
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return &TransportError{Method: r.Method, URL: redacted, Err: scrub(err, r)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Method: r.Method, URL: redacted, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode, Method: r.Method, URL: redacted, Body: string(bodyBytes)}
	}

	if r.ParseJSON {
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(bodyBytes, v); err != nil {
			return &DecodeError{StatusCode: resp.StatusCode, URL: redacted, Body: string(bodyBytes), Err: err}
		}
		return nil
	}

	switch out := v.(type) {
	case nil:
	case *string:
		*out = string(bodyBytes)
	default:
		return fmt.Errorf("raw response can only be stored in *string, got %T", v)
	}
	return nil
}

// scrub masks the token in *url.Error values, which quote the URL verbatim.
func scrub(err error, r Request) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = r.RedactedURL()
	}
	return err
}
