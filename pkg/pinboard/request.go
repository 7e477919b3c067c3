package pinboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// QueryParam is a single query string entry of a Request.
// Names and values are percent-encoded when the URL is built unless the
// corresponding NoEncode flag is set.
type QueryParam struct {
	Name          string
	Value         string
	NoEncodeName  bool
	NoEncodeValue bool
}

func (q QueryParam) String() string {
	name, value := q.Name, q.Value
	if !q.NoEncodeName {
		name = url.QueryEscape(name)
	}
	if !q.NoEncodeValue {
		value = url.QueryEscape(value)
	}
	return name + "=" + value
}

// Request describes an HTTP request against a Pinboard host.
// Requests are values; derive children with Clone instead of mutating.
type Request struct {
	Host        string
	BasePath    []string
	QueryParams []QueryParam
	Protocol    string
	Port        int
	Method      string
	ParseJSON   bool
	Body        string
}

// NewRequest returns a GET request for host over HTTPS on the default port.
func NewRequest(host string, basePath ...string) Request {
	return Request{
		Host:     host,
		BasePath: append([]string(nil), basePath...),
		Protocol: "https",
		Port:     443,
		Method:   "GET",
	}
}

// ParseRequestURL builds a Request from an absolute URL. Query parameters of
// the URL are kept verbatim.
func ParseRequestURL(raw string) (Request, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Request{}, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Request{}, fmt.Errorf("unsupported protocol %q", u.Scheme)
	}
	r := NewRequest(u.Hostname())
	r.Protocol = u.Scheme
	r.Port = defaultPort(u.Scheme)
	if p := u.Port(); p != "" {
		r.Port, err = strconv.Atoi(p)
		if err != nil {
			return Request{}, fmt.Errorf("invalid port %q: %w", p, err)
		}
	}
	for _, seg := range strings.Split(strings.Trim(u.EscapedPath(), "/"), "/") {
		if seg != "" {
			r.BasePath = append(r.BasePath, seg)
		}
	}
	if u.RawQuery != "" {
		for _, kv := range strings.Split(u.RawQuery, "&") {
			name, value, _ := strings.Cut(kv, "=")
			r.QueryParams = append(r.QueryParams, QueryParam{Name: name, Value: value, NoEncodeName: true, NoEncodeValue: true})
		}
	}
	return r, nil
}

// Clone returns a copy of r with subPath appended to the base path and
// params appended to the query parameters. r itself is left untouched.
func (r Request) Clone(subPath []string, params ...QueryParam) Request {
	c := r
	c.BasePath = make([]string, 0, len(r.BasePath)+len(subPath))
	c.BasePath = append(c.BasePath, r.BasePath...)
	c.BasePath = append(c.BasePath, subPath...)
	c.QueryParams = make([]QueryParam, 0, len(r.QueryParams)+len(params))
	c.QueryParams = append(c.QueryParams, r.QueryParams...)
	c.QueryParams = append(c.QueryParams, params...)
	return c
}

// Query renders the query string including the leading '?', or "" when
// there are no parameters.
func (r Request) Query() string {
	if len(r.QueryParams) == 0 {
		return ""
	}
	parts := make([]string, len(r.QueryParams))
	for i, q := range r.QueryParams {
		parts[i] = q.String()
	}
	return "?" + strings.Join(parts, "&")
}

// Path is the request path plus query string.
func (r Request) Path() string {
	return "/" + strings.Join(r.BasePath, "/") + r.Query()
}

// FullURL is the absolute URL of the request. The port is omitted when it is
// the protocol default.
func (r Request) FullURL() string {
	host := r.Host
	if r.Port != 0 && r.Port != defaultPort(r.Protocol) {
		host += ":" + strconv.Itoa(r.Port)
	}
	return r.Protocol + "://" + host + r.Path()
}

// RedactedURL is FullURL with the auth_token value masked, for logs and errors.
func (r Request) RedactedURL() string {
	c := r
	c.QueryParams = make([]QueryParam, len(r.QueryParams))
	for i, q := range r.QueryParams {
		if q.Name == authTokenParam {
			q.Value = "***"
			q.NoEncodeValue = true
		}
		c.QueryParams[i] = q
	}
	return c.FullURL()
}

// Equals reports whether both requests target the same path with the same
// method, body and decoding.
func (r Request) Equals(o Request) bool {
	return r.Path() == o.Path() &&
		r.ParseJSON == o.ParseJSON &&
		r.Method == o.Method &&
		r.Body == o.Body
}

func defaultPort(protocol string) int {
	switch protocol {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}
