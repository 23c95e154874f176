package http

import (
	"context"
	"net/http"
	"time"
)

// Client is a thin wrapper over net/http with a shared default timeout and
// User-Agent, used by all outbound API integrations.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithUserAgent returns a Client that stamps every request with the
// given User-Agent header (required by the Nominatim usage policy).
func NewClientWithUserAgent(timeout time.Duration, userAgent string) *Client {
	c := NewClient(timeout)
	c.userAgent = userAgent
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.Do(req)
}
