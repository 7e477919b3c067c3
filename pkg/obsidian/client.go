package obsidian

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client is the main entry point for the Obsidian Local REST API client.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	err     error

	// Services
	ActiveFile *ActiveFileService
	Vault      *VaultService
	Periodic   *PeriodicService
	Search     *SearchService
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// NewClient creates a new Obsidian API client.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: u,
		token:   token,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return nil, c.err
	}

	c.initializeServices()

	return c, nil
}

// WithHTTPClient allows providing a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithInsecureTLS disables TLS certificate verification.
// This is often necessary for the Obsidian Local REST API as it uses self-signed certificates.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.tlsConfig().InsecureSkipVerify = true
	}
}

// WithCertificate trusts the PEM certificate at path, e.g. the one the
// Local REST API plugin offers for download.
func WithCertificate(path string) Option {
	return func(c *Client) {
		pem, err := os.ReadFile(path)
		if err != nil {
			c.err = fmt.Errorf("read certificate: %w", err)
			return
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			c.err = fmt.Errorf("no certificates found in %s", path)
			return
		}
		c.tlsConfig().RootCAs = pool
	}
}

func (c *Client) tlsConfig() *tls.Config {
	t, ok := c.http.Transport.(*http.Transport)
	if !ok || t == nil {
		t = &http.Transport{}
		c.http.Transport = t
	}
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	return t.TLSClientConfig
}

func (c *Client) initializeServices() {
	c.ActiveFile = &ActiveFileService{client: c}
	c.Vault = &VaultService{client: c}
	c.Periodic = &PeriodicService{client: c}
	c.Search = &SearchService{client: c}
}

func (c *Client) do(req *http.Request, v interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		errResp := ErrorResponse{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil || errResp.Message == "" {
			errResp.Message = fmt.Sprintf("API error: status code %d, body: %s", resp.StatusCode, string(bodyBytes))
		}
		return &errResp
	}

	if v != nil {
		// specific handling for string response (raw content)
		if strPtr, ok := v.(*string); ok {
			bodyBytes, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			*strPtr = string(bodyBytes)
			return nil
		}

		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// IsNotFound reports whether err is a 404 answer from the API.
func IsNotFound(err error) bool {
	var errResp *ErrorResponse
	return errors.As(err, &errResp) && errResp.StatusCode == http.StatusNotFound
}
